package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/events"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/service/notification"
	"github.com/Alijeyrad/odonto_backend/internal/testutil"
	"github.com/Alijeyrad/odonto_backend/pkg/push"
)

func newWorker(t *testing.T) (*testutil.Fixture, *events.Local) {
	t.Helper()
	f := testutil.New(t)
	bus := events.NewLocal("odonto")
	w := &notificationWorker{db: f.Store, notif: notification.New(f.Store, push.Nop{})}
	require.NoError(t, w.Subscribe(bus))
	return f, bus
}

func inbox(t *testing.T, f *testutil.Fixture, userID uuid.UUID) []*repo.Notification {
	t.Helper()
	list, _, err := f.Store.ListNotifications(context.Background(), repo.NotificationFilter{UserID: userID})
	require.NoError(t, err)
	return list
}

func TestWorkerNotifiesStudentAndCoordinators(t *testing.T) {
	f, bus := newWorker(t)
	ctx := context.Background()
	student := f.StudentA.ID

	require.NoError(t, bus.Publish(ctx, events.Event{
		Type:        events.AssignmentCompleted,
		EntityID:    uuid.New(),
		ActorID:     student,
		StudentID:   &student,
		ProcedureID: uuid.New(),
		PatientID:   f.Patient.ID,
		FacultyID:   &f.Faculty.ID,
		Status:      "completada",
	}))
	bus.Wait()

	got := inbox(t, f, student)
	require.Len(t, got, 1)
	assert.Equal(t, NotifAssignmentCompleted, got[0].Type)
	assert.Equal(t, string(events.AssignmentCompleted), got[0].Data["event"])

	require.Len(t, inbox(t, f, f.Coordinator.ID), 1)
	assert.Empty(t, inbox(t, f, f.StudentB.ID))
	assert.Empty(t, inbox(t, f, f.Admission.ID))
}

func TestWorkerSkipsActingCoordinator(t *testing.T) {
	f, bus := newWorker(t)
	ctx := context.Background()
	student := f.StudentB.ID

	require.NoError(t, bus.Publish(ctx, events.Event{
		Type:      events.AssignmentAbandoned,
		EntityID:  uuid.New(),
		ActorID:   f.Coordinator.ID,
		StudentID: &student,
		FacultyID: &f.Faculty.ID,
		Reason:    "no-show",
	}))
	bus.Wait()

	got := inbox(t, f, student)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Body, "no-show")
	assert.Empty(t, inbox(t, f, f.Coordinator.ID))
}

func TestWorkerCreatedGoesToStudentOnly(t *testing.T) {
	f, bus := newWorker(t)
	student := f.StudentA.ID

	require.NoError(t, bus.Publish(context.Background(), events.Event{
		Type:      events.AssignmentCreated,
		EntityID:  uuid.New(),
		ActorID:   student,
		StudentID: &student,
		FacultyID: &f.Faculty.ID,
	}))
	bus.Wait()

	require.Len(t, inbox(t, f, student), 1)
	assert.Empty(t, inbox(t, f, f.Coordinator.ID))
}
