package app

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/events"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/service/notification"
)

// WorkerModule registers all event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Bus      events.Bus
	DB       repo.Store
	NotifSvc notification.Service
}

func RegisterWorkers(p WorkerParams) {
	w := &notificationWorker{db: p.DB, notif: p.NotifSvc}
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return w.Subscribe(p.Bus)
		},
		OnStop: func(ctx context.Context) error {
			// Unsubscribed when the bus closes.
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// notification_worker
// ---------------------------------------------------------------------------

// Notification types stored on the in-app rows.
const (
	NotifAssignmentCreated   = "assignment_created"
	NotifAssignmentCompleted = "assignment_completed"
	NotifAssignmentAbandoned = "assignment_abandoned"
	NotifProcedureOverridden = "procedure_overridden"
)

type notificationWorker struct {
	db    repo.Store
	notif notification.Service
}

func (w *notificationWorker) Subscribe(bus events.Bus) error {
	for _, t := range []events.Type{
		events.AssignmentCreated,
		events.AssignmentCompleted,
		events.AssignmentAbandoned,
		events.ProcedureOverridden,
	} {
		if err := bus.Subscribe(events.Wildcard(bus.Prefix(), t), w.Handle); err != nil {
			return err
		}
	}
	slog.Info("notification worker subscribed", "prefix", bus.Prefix())
	return nil
}

// Handle turns one lifecycle event into in-app notifications. The student
// hears about their own assignments; coordinators of the patient's faculty
// hear about completions, abandonments and overrides unless they acted
// themselves.
func (w *notificationWorker) Handle(ctx context.Context, e events.Event) {
	var (
		kind, title, body string
		toStudent         bool
		toCoordinators    bool
	)
	switch e.Type {
	case events.AssignmentCreated:
		kind, title, body = NotifAssignmentCreated, "Procedimiento asignado", "Tenés un nuevo procedimiento en curso."
		toStudent = true
	case events.AssignmentCompleted:
		kind, title, body = NotifAssignmentCompleted, "Procedimiento finalizado", "Se registró la finalización de un procedimiento."
		toStudent, toCoordinators = true, true
	case events.AssignmentAbandoned:
		kind, title, body = NotifAssignmentAbandoned, "Procedimiento abandonado", "Una asignación fue cerrada sin completar: "+e.Reason
		toStudent, toCoordinators = true, true
	case events.ProcedureOverridden:
		kind, title, body = NotifProcedureOverridden, "Procedimiento contraindicado", "Un procedimiento fue marcado como "+e.Status+": "+e.Reason
		toCoordinators = true
	default:
		return
	}

	var targets []uuid.UUID
	if toCoordinators && e.FacultyID != nil {
		ids, err := w.coordinators(ctx, *e.FacultyID)
		if err != nil {
			slog.Error("notification worker: list coordinators", "faculty_id", e.FacultyID, "error", err)
		}
		targets = slices.DeleteFunc(ids, func(id uuid.UUID) bool { return id == e.ActorID })
	}
	if toStudent && e.StudentID != nil {
		targets = append(targets, *e.StudentID)
	}
	if len(targets) == 0 {
		return
	}

	if _, err := w.notif.Notify(ctx, notification.NotifyRequest{
		UserIDs: targets,
		Type:    kind,
		Title:   title,
		Body:    body,
		Data: map[string]string{
			"event":        string(e.Type),
			"entity_id":    e.EntityID.String(),
			"procedure_id": e.ProcedureID.String(),
			"patient_id":   e.PatientID.String(),
		},
	}); err != nil {
		slog.Error("notification worker: notify", "type", e.Type, "entity_id", e.EntityID, "error", err)
	}
}

func (w *notificationWorker) coordinators(ctx context.Context, facultyID uuid.UUID) ([]uuid.UUID, error) {
	role := domain.RoleCoordinador
	users, _, err := w.db.ListUsers(ctx, repo.UserFilter{Role: &role, FacultyID: &facultyID})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		if u.IsActive {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}
