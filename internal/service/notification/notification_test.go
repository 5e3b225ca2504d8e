package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/testutil"
	"github.com/Alijeyrad/odonto_backend/pkg/push"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    [][]string
	topics  []string
	rejects map[string]string
	fail    error
}

func (f *fakeSender) Send(_ context.Context, tokens []string, _ push.Message) ([]push.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	f.sent = append(f.sent, tokens)
	out := make([]push.Result, len(tokens))
	for i, tok := range tokens {
		out[i] = push.Result{Token: tok, MessageID: "m-" + tok, Err: f.rejects[tok]}
	}
	return out, nil
}

func (f *fakeSender) SendTopic(_ context.Context, topic string, _ push.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	return "topic-1", nil
}

func TestNotifyStoresAndPushes(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	sender := &fakeSender{rejects: map[string]string{"stale": tokenGone}}
	svc := New(f.Store, sender)

	_, err := svc.RegisterDevice(ctx, f.StudentAP(), RegisterDeviceRequest{DeviceToken: "phone", Platform: "android"})
	require.NoError(t, err)
	_, err = svc.RegisterDevice(ctx, f.StudentAP(), RegisterDeviceRequest{DeviceToken: "stale", Platform: "ios"})
	require.NoError(t, err)

	list, err := svc.Notify(ctx, NotifyRequest{
		UserIDs: []uuid.UUID{f.StudentA.ID, f.Coordinator.ID, f.StudentA.ID},
		Type:    "assignment.completed",
		Title:   "Asignación completada",
		Data:    map[string]string{"assignment_id": "a1"},
	})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.Len(t, sender.sent, 1)
	assert.ElementsMatch(t, []string{"phone", "stale"}, sender.sent[0])

	devices, err := f.Store.ListDevices(ctx, f.StudentA.ID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "phone", devices[0].DeviceToken)

	got, total, err := svc.List(ctx, f.StudentAP(), true, repo.Page{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "a1", got[0].Data["assignment_id"])
}

func TestNotifyIgnoresPushFailure(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	svc := New(f.Store, &fakeSender{fail: errors.New("provider down")})

	_, err := svc.RegisterDevice(ctx, f.StudentAP(), RegisterDeviceRequest{DeviceToken: "phone", Platform: "web"})
	require.NoError(t, err)

	list, err := svc.Notify(ctx, NotifyRequest{UserIDs: []uuid.UUID{f.StudentA.ID}, Type: "t", Title: "x"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkRead(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	svc := New(f.Store, push.Nop{})

	list, err := svc.Notify(ctx, NotifyRequest{UserIDs: []uuid.UUID{f.StudentA.ID}, Type: "t", Title: "uno"})
	require.NoError(t, err)
	_, err = svc.Notify(ctx, NotifyRequest{UserIDs: []uuid.UUID{f.StudentA.ID}, Type: "t", Title: "dos"})
	require.NoError(t, err)

	err = svc.MarkRead(ctx, f.StudentBP(), list[0].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.MarkRead(ctx, f.StudentAP(), list[0].ID))
	_, unread, err := svc.List(ctx, f.StudentAP(), true, repo.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	n, err := svc.MarkAllRead(ctx, f.StudentAP())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDevices(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	svc := New(f.Store, push.Nop{})

	_, err := svc.RegisterDevice(ctx, f.StudentAP(), RegisterDeviceRequest{DeviceToken: "tok", Platform: "blackberry"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.RegisterDevice(ctx, f.StudentAP(), RegisterDeviceRequest{DeviceToken: "tok", Platform: "ios"})
	require.NoError(t, err)
	// the same phone logged in as another user moves over
	_, err = svc.RegisterDevice(ctx, f.StudentBP(), RegisterDeviceRequest{DeviceToken: "tok", Platform: "ios"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RemoveDevice(ctx, f.StudentAP(), "tok"), ErrDeviceNotFound)
	assert.NoError(t, svc.RemoveDevice(ctx, f.StudentBP(), "tok"))
}

func TestBroadcast(t *testing.T) {
	f := testutil.New(t)
	sender := &fakeSender{}
	svc := New(f.Store, sender)

	_, err := svc.Broadcast(context.Background(), f.CoordinatorP(), BroadcastRequest{Topic: "all", Title: "x"})
	assert.ErrorIs(t, err, ErrAdminOnly)

	id, err := svc.Broadcast(context.Background(), f.AdminP(), BroadcastRequest{Topic: "alumnos", Title: "Cierre de clínica"})
	require.NoError(t, err)
	assert.Equal(t, "topic-1", id)
	assert.Equal(t, []string{"alumnos"}, sender.topics)
}
