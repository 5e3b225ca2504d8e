package assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/events"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/service/audit"
	"github.com/Alijeyrad/odonto_backend/pkg/observability"
	"github.com/Alijeyrad/odonto_backend/pkg/validate"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CompleteRequest struct {
	Notes string `json:"notes" validate:"notblank,max=4000"`
}

type AbandonRequest struct {
	Reason  string `json:"reason" validate:"notblank,max=2000"`
	Outcome string `json:"outcome" validate:"omitempty,oneof=cancelado ausente contraindicado"`
}

type NotesRequest struct {
	Notes string `json:"notes" validate:"max=4000"`
}

type SessionRequest struct {
	SessionDate  *time.Time `json:"session_date"`
	Notes        string     `json:"notes" validate:"max=4000"`
	SupervisorID *uuid.UUID `json:"supervisor_id"`
}

type ListRequest struct {
	StudentID   *uuid.UUID
	ProcedureID *uuid.UUID
	Status      *domain.AssignmentStatus
	Page        repo.Page
}

// Detail is an assignment with its procedure and recorded sessions.
type Detail struct {
	*repo.Assignment
	Procedure *repo.PatientProcedure   `json:"procedure"`
	Sessions  []*repo.TreatmentSession `json:"sessions"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, p domain.Principal, procedureID uuid.UUID) (*repo.Assignment, error)
	Complete(ctx context.Context, p domain.Principal, id uuid.UUID, req CompleteRequest) (*repo.Assignment, error)
	Abandon(ctx context.Context, p domain.Principal, id uuid.UUID, req AbandonRequest) (*repo.Assignment, error)
	AmendNotes(ctx context.Context, p domain.Principal, id uuid.UUID, req NotesRequest) (*repo.Assignment, error)
	RecordSession(ctx context.Context, p domain.Principal, id uuid.UUID, req SessionRequest) (*repo.TreatmentSession, error)
	ListSessions(ctx context.Context, p domain.Principal, id uuid.UUID) ([]*repo.TreatmentSession, error)
	Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*Detail, error)
	ListMine(ctx context.Context, p domain.Principal, status *domain.AssignmentStatus, page repo.Page) ([]*repo.Assignment, int, error)
	List(ctx context.Context, p domain.Principal, req ListRequest) ([]*repo.Assignment, int, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type assignmentService struct {
	db        repo.Store
	audit     audit.Recorder
	events    events.Publisher
	lifecycle *observability.Lifecycle
}

func New(db repo.Store, rec audit.Recorder, pub events.Publisher, lc *observability.Lifecycle) Service {
	return &assignmentService{db: db, audit: rec, events: pub, lifecycle: lc}
}

// outcome is what a committed transition publishes.
type outcome struct {
	a         *repo.Assignment
	proc      *repo.PatientProcedure
	facultyID *uuid.UUID
	from, to  domain.ProcedureStatus
}

func (s *assignmentService) Create(ctx context.Context, p domain.Principal, procedureID uuid.UUID) (*repo.Assignment, error) {
	if p.Role != domain.RoleAlumno {
		return nil, ErrStudentOnly
	}

	var out outcome
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		proc, pt, err := loadProcedure(ctx, q, p, procedureID)
		if err != nil {
			return err
		}
		out.proc, out.facultyID, out.from = proc, pt.FacultyID, proc.Status

		// the conditional update is the claim; the partial unique index
		// catches whatever slips past it
		claimed, err := q.ClaimProcedure(ctx, proc.ID)
		if err != nil {
			return fmt.Errorf("claim procedure: %w", err)
		}
		if !claimed {
			if proc.Status == domain.ProcedureProceso {
				return ErrAlreadyClaimed
			}
			return fmt.Errorf("procedure is %s: %w", proc.Status, ErrNotClaimable)
		}
		out.to = domain.ProcedureProceso

		a := &repo.Assignment{
			PatientProcedureID: proc.ID,
			StudentID:          p.UserID,
			Status:             domain.AssignmentActiva,
			StartedAt:          time.Now().UTC(),
		}
		if err := q.CreateAssignment(ctx, a); err != nil {
			if repo.IsUniqueViolation(err, repo.UniqueActiveAssignment, repo.UniqueActiveStudentAssignment) {
				return ErrAlreadyClaimed
			}
			return fmt.Errorf("create assignment: %w", err)
		}
		out.a = a

		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityAssignment,
			EntityID: a.ID,
			Action:   audit.ActionAssignmentCreated,
			Meta: audit.Meta{}.
				Changed("status", nil, a.Status).
				Changed("procedure_status", out.from, out.to).
				Set("procedure_id", proc.ID),
		})
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			s.lifecycle.ClaimConflict(ctx)
		}
		return nil, err
	}

	s.published(ctx, p, events.AssignmentCreated, out, "")
	return out.a, nil
}

func (s *assignmentService) Complete(ctx context.Context, p domain.Principal, id uuid.UUID, req CompleteRequest) (*repo.Assignment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(req.Notes)

	out, err := s.finish(ctx, p, id, false, func(a *repo.Assignment) (repo.AssignmentFinish, domain.ProcedureStatus) {
		return repo.AssignmentFinish{
			Status: domain.AssignmentCompletada,
			Notes:  notes,
		}, domain.ProcedureFinalizado
	})
	if err != nil {
		return nil, err
	}
	s.published(ctx, p, events.AssignmentCompleted, out, "")
	return out.a, nil
}

func (s *assignmentService) Abandon(ctx context.Context, p domain.Principal, id uuid.UUID, req AbandonRequest) (*repo.Assignment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	oc, err := domain.ParseAbandonOutcome(req.Outcome)
	if err != nil {
		return nil, apperr.Invalid("outcome", "must be one of: cancelado ausente contraindicado")
	}

	out, err := s.finish(ctx, p, id, true, func(a *repo.Assignment) (repo.AssignmentFinish, domain.ProcedureStatus) {
		return repo.AssignmentFinish{
			Status:        domain.AssignmentAbandonada,
			Notes:         a.Notes,
			AbandonReason: reason,
		}, oc.ProcedureStatus()
	})
	if err != nil {
		return nil, err
	}
	s.published(ctx, p, events.AssignmentAbandoned, out, reason)
	return out.a, nil
}

// finish applies a terminal transition to the assignment and its procedure
// and appends a single audit row. onBehalf lets coordinators and admins act
// for the student.
func (s *assignmentService) finish(
	ctx context.Context,
	p domain.Principal,
	id uuid.UUID,
	onBehalf bool,
	build func(a *repo.Assignment) (repo.AssignmentFinish, domain.ProcedureStatus),
) (outcome, error) {
	var out outcome
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		a, proc, pt, err := s.load(ctx, q, p, id)
		if err != nil {
			return err
		}
		if a.StudentID != p.UserID && !(onBehalf && p.Is(domain.RoleCoordinador, domain.RoleAdmin)) {
			return ErrNotOwner
		}
		if a.Status != domain.AssignmentActiva {
			return ErrNotActive
		}

		fin, procTo := build(a)
		// an abandoned re-treatment leaves the earlier treatment finalised
		// and still open for repair
		if fin.Status == domain.AssignmentAbandonada && proc.IsRepair {
			procTo = domain.ProcedureFinalizado
		}
		fin.FinishedAt = time.Now().UTC()
		ok, err := q.FinishAssignment(ctx, a.ID, fin)
		if err != nil {
			return fmt.Errorf("finish assignment: %w", err)
		}
		if !ok {
			return ErrNotActive
		}

		procFrom := proc.Status
		if !domain.CanTransitionProcedure(procFrom, procTo, proc.IsRepair) {
			return fmt.Errorf("%s to %s: %w", procFrom, procTo, ErrProcedureChanged)
		}
		ok, err = q.SetProcedureStatus(ctx, proc.ID, procFrom, procTo, fin.AbandonReason)
		if err != nil {
			return fmt.Errorf("set procedure status: %w", err)
		}
		if !ok {
			return ErrProcedureChanged
		}
		// a completed repair is closed again
		if fin.Status == domain.AssignmentCompletada && proc.IsRepair {
			if err := q.SetProcedureRepair(ctx, proc.ID, false); err != nil {
				return fmt.Errorf("clear repair flag: %w", err)
			}
			proc.IsRepair = false
		}

		meta := audit.Transition(a.Status, fin.Status).
			Changed("procedure_status", procFrom, procTo).
			Set("procedure_id", proc.ID)
		if fin.Status == domain.AssignmentCompletada {
			meta.Changed("notes", a.Notes, fin.Notes)
		} else {
			meta.Set("reason", fin.AbandonReason)
		}
		action := audit.ActionAssignmentCompleted
		if fin.Status == domain.AssignmentAbandonada {
			action = audit.ActionAssignmentAbandoned
		}
		if err := s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityAssignment,
			EntityID: a.ID,
			Action:   action,
			Meta:     meta,
		}); err != nil {
			return err
		}

		a.Status, a.Notes, a.AbandonReason, a.FinishedAt = fin.Status, fin.Notes, fin.AbandonReason, &fin.FinishedAt
		proc.Status, proc.StatusReason = procTo, fin.AbandonReason
		out = outcome{a: a, proc: proc, facultyID: pt.FacultyID, from: procFrom, to: procTo}
		return nil
	})
	if err != nil {
		return outcome{}, err
	}
	return out, nil
}

func (s *assignmentService) AmendNotes(ctx context.Context, p domain.Principal, id uuid.UUID, req NotesRequest) (*repo.Assignment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(req.Notes)

	var out *repo.Assignment
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		a, _, _, err := s.load(ctx, q, p, id)
		if err != nil {
			return err
		}
		if a.StudentID != p.UserID && !p.Is(domain.RoleCoordinador, domain.RoleAdmin) {
			return ErrNotOwner
		}
		meta := audit.Meta{}.Changed("notes", a.Notes, notes)
		out = a
		if len(meta) == 0 {
			return nil
		}
		if err := q.UpdateAssignmentNotes(ctx, a.ID, notes); err != nil {
			return fmt.Errorf("update notes: %w", err)
		}
		a.Notes = notes
		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityAssignment,
			EntityID: a.ID,
			Action:   audit.ActionAssignmentNotes,
			Meta:     meta.Set("status", a.Status),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *assignmentService) RecordSession(ctx context.Context, p domain.Principal, id uuid.UUID, req SessionRequest) (*repo.TreatmentSession, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var out *repo.TreatmentSession
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		a, _, _, err := s.load(ctx, q, p, id)
		if err != nil {
			return err
		}
		if a.StudentID != p.UserID {
			return ErrNotOwner
		}
		if req.SupervisorID != nil {
			sup, err := q.GetUser(ctx, *req.SupervisorID)
			if err != nil || !sup.Role.IsStaff() {
				if err == nil || repo.IsNotFound(err) {
					return apperr.Invalid("supervisor_id", "must be a staff member")
				}
				return err
			}
		}

		ok, err := q.IncrementSessions(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("increment sessions: %w", err)
		}
		if !ok {
			return ErrNotActive
		}

		sess := &repo.TreatmentSession{
			AssignmentID: a.ID,
			SessionDate:  time.Now().UTC(),
			Notes:        strings.TrimSpace(req.Notes),
			SupervisorID: req.SupervisorID,
		}
		if req.SessionDate != nil {
			sess.SessionDate = req.SessionDate.UTC()
		}
		if err := q.CreateSession(ctx, sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		out = sess

		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityAssignment,
			EntityID: a.ID,
			Action:   audit.ActionSessionRecorded,
			Meta: audit.Meta{}.
				Changed("sessions_completed", a.SessionsCompleted, a.SessionsCompleted+1).
				Set("session_id", sess.ID),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *assignmentService) ListSessions(ctx context.Context, p domain.Principal, id uuid.UUID) ([]*repo.TreatmentSession, error) {
	a, _, _, err := s.load(ctx, s.db, p, id)
	if err != nil {
		return nil, err
	}
	return s.db.ListSessions(ctx, a.ID)
}

func (s *assignmentService) Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*Detail, error) {
	a, proc, _, err := s.load(ctx, s.db, p, id)
	if err != nil {
		return nil, err
	}
	sessions, err := s.db.ListSessions(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return &Detail{Assignment: a, Procedure: proc, Sessions: sessions}, nil
}

func (s *assignmentService) ListMine(ctx context.Context, p domain.Principal, status *domain.AssignmentStatus, page repo.Page) ([]*repo.Assignment, int, error) {
	if p.Role != domain.RoleAlumno {
		return nil, 0, ErrStudentOnly
	}
	return s.db.ListAssignments(ctx, repo.AssignmentFilter{StudentID: &p.UserID, Status: status, Page: page})
}

func (s *assignmentService) List(ctx context.Context, p domain.Principal, req ListRequest) ([]*repo.Assignment, int, error) {
	if !p.IsStaff() {
		return nil, 0, ErrStaffOnly
	}
	return s.db.ListAssignments(ctx, repo.AssignmentFilter{
		StudentID:   req.StudentID,
		ProcedureID: req.ProcedureID,
		Status:      req.Status,
		Page:        req.Page,
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// load fetches an assignment with its procedure and patient. Students only
// see their own assignments; staff see those of patients in scope.
func (s *assignmentService) load(ctx context.Context, q repo.Queries, p domain.Principal, id uuid.UUID) (*repo.Assignment, *repo.PatientProcedure, *repo.Patient, error) {
	a, err := q.GetAssignment(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, nil, ErrAssignmentNotFound
		}
		return nil, nil, nil, err
	}
	if p.Role == domain.RoleAlumno && a.StudentID != p.UserID {
		return nil, nil, nil, ErrNotOwner
	}
	proc, pt, err := loadProcedure(ctx, q, p, a.PatientProcedureID)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, proc, pt, nil
}

func loadProcedure(ctx context.Context, q repo.Queries, p domain.Principal, id uuid.UUID) (*repo.PatientProcedure, *repo.Patient, error) {
	proc, err := q.GetProcedure(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, ErrProcedureNotFound
		}
		return nil, nil, err
	}
	pt, err := q.GetPatient(ctx, proc.PatientID)
	if err != nil {
		return nil, nil, fmt.Errorf("load patient: %w", err)
	}
	if !p.CanSeeFaculty(pt.FacultyID) {
		return nil, nil, ErrAccessDenied
	}
	return proc, pt, nil
}

// published records metrics and emits the event of a committed transition.
func (s *assignmentService) published(ctx context.Context, p domain.Principal, t events.Type, out outcome, reason string) {
	s.lifecycle.Transition(ctx, audit.EntityProcedure, string(out.from), string(out.to))
	s.lifecycle.Transition(ctx, audit.EntityAssignment, transitionFrom(t), string(out.a.Status))

	student := out.a.StudentID
	events.Emit(ctx, s.events, events.Event{
		Type:        t,
		EntityID:    out.a.ID,
		ActorID:     p.UserID,
		StudentID:   &student,
		ProcedureID: out.proc.ID,
		PatientID:   out.proc.PatientID,
		FacultyID:   out.facultyID,
		Status:      string(out.a.Status),
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})
}

func transitionFrom(t events.Type) string {
	if t == events.AssignmentCreated {
		return ""
	}
	return string(domain.AssignmentActiva)
}
