// Package audit appends and lists the audit trail. Every state-changing
// service call records its entries through a Recorder on the same
// transaction as the change, so a failed append rolls the change back.
package audit

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

// Audited entities.
const (
	EntityUser       = "user"
	EntityPatient    = "patient"
	EntityOdontogram = "odontogram"
	EntityTooth      = "odontogram_tooth"
	EntityProcedure  = "patient_procedure"
	EntityAssignment = "assignment"
	EntitySession    = "treatment_session"
	EntityPhoto      = "procedure_photo"
	EntityCatalog    = "catalog"
)

// Actions.
const (
	ActionUserCreated         = "user.created"
	ActionUserUpdated         = "user.updated"
	ActionPatientCreated      = "patient.created"
	ActionPatientUpdated      = "patient.updated"
	ActionPatientDeleted      = "patient.deleted"
	ActionConsentUploaded     = "patient.consent_uploaded"
	ActionOdontogramCreated   = "odontogram.created"
	ActionToothAdded          = "odontogram.tooth_added"
	ActionToothCorrected      = "odontogram.tooth_corrected"
	ActionProcedureCreated    = "procedure.created"
	ActionProcedureOverridden = "procedure.status_overridden"
	ActionProcedureRepair     = "procedure.repair_flagged"
	ActionAssignmentCreated   = "assignment.created"
	ActionAssignmentCompleted = "assignment.completed"
	ActionAssignmentAbandoned = "assignment.abandoned"
	ActionAssignmentNotes     = "assignment.notes_amended"
	ActionSessionRecorded     = "assignment.session_recorded"
	ActionPhotoUploaded       = "photo.uploaded"
	ActionCatalogEntryCreated = "catalog.created"
)

// Entry is one audit row before it is stored.
type Entry struct {
	Actor    *uuid.UUID
	Entity   string
	EntityID uuid.UUID
	Action   string
	Meta     Meta
}

// Meta maps a field name to its change or to a plain value.
type Meta map[string]any

// Change is the meta value of a changed field.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Changed adds field to m when before and after differ. Pointers are
// compared and stored by value.
func (m Meta) Changed(field string, before, after any) Meta {
	b, a := deref(before), deref(after)
	if !reflect.DeepEqual(b, a) {
		m[field] = Change{Old: b, New: a}
	}
	return m
}

// Set adds a plain value.
func (m Meta) Set(field string, v any) Meta {
	m[field] = deref(v)
	return m
}

// Transition records a status move.
func Transition(from, to any) Meta {
	return Meta{}.Changed("status", from, to)
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

// Actor returns the principal as the row's user.
func Actor(p domain.Principal) *uuid.UUID {
	if p.UserID == uuid.Nil {
		return nil
	}
	id := p.UserID
	return &id
}

// Recorder appends audit rows through the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, q repo.Queries, e Entry) error
}

type recorder struct{}

func NewRecorder() Recorder { return recorder{} }

func (recorder) Record(ctx context.Context, q repo.Queries, e Entry) error {
	meta := make(map[string]any, len(e.Meta)+2)
	for k, v := range e.Meta {
		meta[k] = v
	}
	if rm, ok := reqctx.RequestMetaFromContext(ctx); ok {
		meta["request_id"] = rm.RequestID
		if rm.ClientIP != "" {
			meta["client_ip"] = rm.ClientIP
		}
	}
	if err := q.AppendAudit(ctx, &repo.Audit{
		UserID:   e.Actor,
		Entity:   e.Entity,
		EntityID: e.EntityID,
		Action:   e.Action,
		Meta:     meta,
	}); err != nil {
		return apperr.AuditFailure(fmt.Errorf("%s %s: %w", e.Action, e.EntityID, err))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

type ListRequest struct {
	Entity   string
	EntityID *uuid.UUID
	UserID   *uuid.UUID
	Page     repo.Page
}

type Service interface {
	List(ctx context.Context, p domain.Principal, req ListRequest) ([]*repo.Audit, int, error)
}

type auditService struct {
	db repo.Store
}

func New(db repo.Store) Service {
	return &auditService{db: db}
}

func (s *auditService) List(ctx context.Context, p domain.Principal, req ListRequest) ([]*repo.Audit, int, error) {
	if !p.Is(domain.RoleAdmin, domain.RoleCoordinador) {
		return nil, 0, ErrForbidden
	}
	return s.db.ListAudits(ctx, repo.AuditFilter{
		Entity:   req.Entity,
		EntityID: req.EntityID,
		UserID:   req.UserID,
		Page:     req.Page,
	})
}
