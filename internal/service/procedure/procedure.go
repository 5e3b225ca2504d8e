package procedure

import (
	"context"
	"fmt"
	"slices"
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

type CreateRequest struct {
	TreatmentID      uuid.UUID  `json:"treatment_id" validate:"required"`
	OdontogramID     *uuid.UUID `json:"odontogram_id"`
	ToothFDI         *int       `json:"tooth_fdi" validate:"omitempty,fdi"`
	Surface          *string    `json:"surface" validate:"omitempty,surface"`
	SubclassOptionID *uuid.UUID `json:"subclass_option_id"`
}

// DeriveRequest creates one procedure per tooth. Teeth is ignored for
// treatments that cover a whole arch.
type DeriveRequest struct {
	TreatmentID  uuid.UUID `json:"treatment_id" validate:"required"`
	OdontogramID uuid.UUID `json:"odontogram_id" validate:"required"`
	Teeth        []int     `json:"teeth" validate:"dive,fdi"`
}

type SkippedTooth struct {
	ToothFDI int    `json:"tooth_fdi"`
	Reason   string `json:"reason"`
}

type DeriveResult struct {
	Created []*repo.PatientProcedure `json:"created"`
	Skipped []SkippedTooth           `json:"skipped"`
}

const (
	SkipMissing   = "tooth is missing"
	SkipDuplicate = "an open procedure already exists"
)

type OverrideRequest struct {
	Status string `json:"status" validate:"required,oneof=contraindicado"`
	Reason string `json:"reason" validate:"notblank,max=2000"`
}

type AvailableFilter struct {
	ChairID     *uuid.UUID
	TreatmentID *uuid.UUID
	Page        repo.Page
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, p domain.Principal, patientID uuid.UUID, req CreateRequest) (*repo.PatientProcedure, error)
	Derive(ctx context.Context, p domain.Principal, patientID uuid.UUID, req DeriveRequest) (*DeriveResult, error)
	OverrideStatus(ctx context.Context, p domain.Principal, id uuid.UUID, req OverrideRequest) (*repo.PatientProcedure, error)
	SetRepair(ctx context.Context, p domain.Principal, id uuid.UUID, isRepair bool) (*repo.PatientProcedure, error)
	Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*repo.PatientProcedure, error)
	ListForPatient(ctx context.Context, p domain.Principal, patientID uuid.UUID, status *domain.ProcedureStatus) ([]*repo.PatientProcedure, error)
	ListAvailable(ctx context.Context, p domain.Principal, f AvailableFilter) ([]*repo.PatientProcedure, int, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type procedureService struct {
	db        repo.Store
	audit     audit.Recorder
	events    events.Publisher
	lifecycle *observability.Lifecycle
}

func New(db repo.Store, rec audit.Recorder, pub events.Publisher, lc *observability.Lifecycle) Service {
	return &procedureService{db: db, audit: rec, events: pub, lifecycle: lc}
}

func (s *procedureService) Create(ctx context.Context, p domain.Principal, patientID uuid.UUID, req CreateRequest) (*repo.PatientProcedure, error) {
	if !p.IsStaff() {
		return nil, ErrStaffOnly
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	surface, _ := domain.NormalizeSurface(req.Surface)

	var created *repo.PatientProcedure
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		pt, err := visiblePatient(ctx, q, p, patientID)
		if err != nil {
			return err
		}
		t, err := loadTreatment(ctx, q, req.TreatmentID)
		if err != nil {
			return err
		}

		var odo *repo.Odontogram
		if req.OdontogramID != nil {
			if odo, err = loadOdontogram(ctx, q, pt.ID, *req.OdontogramID); err != nil {
				return err
			}
		}
		if err := checkTooth(t, odo, req.ToothFDI); err != nil {
			return err
		}
		if req.SubclassOptionID != nil {
			opt, err := q.GetOption(ctx, *req.SubclassOptionID)
			if err != nil || opt.TreatmentID != t.ID {
				if err == nil || repo.IsNotFound(err) {
					return apperr.Invalid("subclass_option_id", "is not an option of the treatment")
				}
				return err
			}
		}

		pp := &repo.PatientProcedure{
			PatientID:        pt.ID,
			TreatmentID:      t.ID,
			ChairID:          t.ChairID,
			OdontogramID:     req.OdontogramID,
			ToothFDI:         req.ToothFDI,
			Surface:          surface,
			SubclassOptionID: req.SubclassOptionID,
			Status:           domain.ProcedureDisponible,
			CreatedBy:        audit.Actor(p),
		}
		if err := s.insert(ctx, q, p, pp); err != nil {
			return err
		}
		created = pp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *procedureService) Derive(ctx context.Context, p domain.Principal, patientID uuid.UUID, req DeriveRequest) (*DeriveResult, error) {
	if !p.IsStaff() {
		return nil, ErrStaffOnly
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	res := &DeriveResult{Created: []*repo.PatientProcedure{}, Skipped: []SkippedTooth{}}
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		pt, err := visiblePatient(ctx, q, p, patientID)
		if err != nil {
			return err
		}
		t, err := loadTreatment(ctx, q, req.TreatmentID)
		if err != nil {
			return err
		}
		odo, err := loadOdontogram(ctx, q, pt.ID, req.OdontogramID)
		if err != nil {
			return err
		}

		teeth, err := targetTeeth(t, odo, req.Teeth)
		if err != nil {
			return err
		}
		missing, err := missingTeeth(ctx, q, odo.ID)
		if err != nil {
			return err
		}
		open, err := openTeeth(ctx, q, pt.ID, t.ID)
		if err != nil {
			return err
		}

		for _, fdi := range teeth {
			switch {
			case missing[fdi]:
				res.Skipped = append(res.Skipped, SkippedTooth{ToothFDI: fdi, Reason: SkipMissing})
				continue
			case open[fdi]:
				res.Skipped = append(res.Skipped, SkippedTooth{ToothFDI: fdi, Reason: SkipDuplicate})
				continue
			}
			tooth := fdi
			pp := &repo.PatientProcedure{
				PatientID:    pt.ID,
				TreatmentID:  t.ID,
				ChairID:      t.ChairID,
				OdontogramID: &odo.ID,
				ToothFDI:     &tooth,
				Status:       domain.ProcedureDisponible,
				CreatedBy:    audit.Actor(p),
			}
			if err := s.insert(ctx, q, p, pp); err != nil {
				return err
			}
			open[fdi] = true
			res.Created = append(res.Created, pp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *procedureService) OverrideStatus(ctx context.Context, p domain.Principal, id uuid.UUID, req OverrideRequest) (*repo.PatientProcedure, error) {
	if !p.IsStaff() {
		return nil, ErrStaffOnly
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	to := domain.ProcedureStatus(req.Status)
	reason := strings.TrimSpace(req.Reason)

	var (
		out     *repo.PatientProcedure
		from    domain.ProcedureStatus
		faculty *uuid.UUID
	)
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		pp, pt, err := s.load(ctx, q, p, id)
		if err != nil {
			return err
		}
		faculty = pt.FacultyID

		if _, err := q.ActiveAssignment(ctx, pp.ID); err == nil {
			return ErrActiveAssignment
		} else if !repo.IsNotFound(err) {
			return err
		}
		if !domain.CanTransitionProcedure(pp.Status, to, pp.IsRepair) {
			return fmt.Errorf("%s to %s: %w", pp.Status, to, ErrInvalidTransition)
		}

		from = pp.Status
		ok, err := q.SetProcedureStatus(ctx, pp.ID, from, to, reason)
		if err != nil {
			return fmt.Errorf("set procedure status: %w", err)
		}
		if !ok {
			return ErrStatusChanged
		}
		pp.Status, pp.StatusReason = to, reason
		out = pp

		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityProcedure,
			EntityID: pp.ID,
			Action:   audit.ActionProcedureOverridden,
			Meta:     audit.Transition(from, to).Set("reason", reason),
		})
	})
	if err != nil {
		return nil, err
	}

	s.lifecycle.Transition(ctx, audit.EntityProcedure, string(from), string(to))
	events.Emit(ctx, s.events, events.Event{
		Type:        events.ProcedureOverridden,
		EntityID:    out.ID,
		ActorID:     p.UserID,
		ProcedureID: out.ID,
		PatientID:   out.PatientID,
		FacultyID:   faculty,
		Status:      string(to),
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})
	return out, nil
}

func (s *procedureService) SetRepair(ctx context.Context, p domain.Principal, id uuid.UUID, isRepair bool) (*repo.PatientProcedure, error) {
	if !p.Is(domain.RoleAdmin, domain.RoleCoordinador) {
		return nil, ErrCoordinatorOnly
	}

	var out *repo.PatientProcedure
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		pp, _, err := s.load(ctx, q, p, id)
		if err != nil {
			return err
		}
		if pp.IsRepair == isRepair {
			out = pp
			return nil
		}
		if isRepair && pp.Status != domain.ProcedureFinalizado {
			return ErrNotFinalized
		}
		if err := q.SetProcedureRepair(ctx, pp.ID, isRepair); err != nil {
			return fmt.Errorf("set repair flag: %w", err)
		}
		before := pp.IsRepair
		pp.IsRepair = isRepair
		out = pp
		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityProcedure,
			EntityID: pp.ID,
			Action:   audit.ActionProcedureRepair,
			Meta:     audit.Meta{}.Changed("is_repair", before, isRepair),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *procedureService) Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*repo.PatientProcedure, error) {
	pp, _, err := s.load(ctx, s.db, p, id)
	return pp, err
}

func (s *procedureService) ListForPatient(ctx context.Context, p domain.Principal, patientID uuid.UUID, status *domain.ProcedureStatus) ([]*repo.PatientProcedure, error) {
	if _, err := visiblePatient(ctx, s.db, p, patientID); err != nil {
		return nil, err
	}
	f := repo.ProcedureFilter{PatientID: &patientID}
	if status != nil {
		f.Statuses = []domain.ProcedureStatus{*status}
	}
	list, _, err := s.db.ListProcedures(ctx, f)
	return list, err
}

func (s *procedureService) ListAvailable(ctx context.Context, p domain.Principal, f AvailableFilter) ([]*repo.PatientProcedure, int, error) {
	return s.db.ListProcedures(ctx, repo.ProcedureFilter{
		ChairID:       f.ChairID,
		TreatmentID:   f.TreatmentID,
		ClaimableOnly: true,
		Scoped:        p.Role != domain.RoleAdmin,
		FacultyID:     p.FacultyID,
		Page:          f.Page,
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *procedureService) insert(ctx context.Context, q repo.Queries, p domain.Principal, pp *repo.PatientProcedure) error {
	if err := q.CreateProcedure(ctx, pp); err != nil {
		return fmt.Errorf("create procedure: %w", err)
	}
	meta := audit.Meta{}.
		Set("patient_id", pp.PatientID).
		Set("treatment_id", pp.TreatmentID).
		Set("status", pp.Status)
	if pp.ToothFDI != nil {
		meta.Set("tooth_fdi", *pp.ToothFDI).Set("surface", pp.Surface)
	}
	return s.audit.Record(ctx, q, audit.Entry{
		Actor:    audit.Actor(p),
		Entity:   audit.EntityProcedure,
		EntityID: pp.ID,
		Action:   audit.ActionProcedureCreated,
		Meta:     meta,
	})
}

// load fetches a procedure together with its patient and checks that the
// principal can see the patient.
func (s *procedureService) load(ctx context.Context, q repo.Queries, p domain.Principal, id uuid.UUID) (*repo.PatientProcedure, *repo.Patient, error) {
	pp, err := q.GetProcedure(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, ErrProcedureNotFound
		}
		return nil, nil, err
	}
	pt, err := visiblePatient(ctx, q, p, pp.PatientID)
	if err != nil {
		return nil, nil, err
	}
	return pp, pt, nil
}

func visiblePatient(ctx context.Context, q repo.Queries, p domain.Principal, id uuid.UUID) (*repo.Patient, error) {
	pt, err := q.GetPatient(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !p.CanSeeFaculty(pt.FacultyID) {
		return nil, ErrAccessDenied
	}
	return pt, nil
}

func loadTreatment(ctx context.Context, q repo.Queries, id uuid.UUID) (*repo.Treatment, error) {
	t, err := q.GetTreatment(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTreatmentNotFound
		}
		return nil, err
	}
	return t, nil
}

func loadOdontogram(ctx context.Context, q repo.Queries, patientID, id uuid.UUID) (*repo.Odontogram, error) {
	o, err := q.GetOdontogram(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrOdontogramNotFound
		}
		return nil, err
	}
	if o.PatientID != patientID {
		return nil, apperr.Invalid("odontogram_id", "belongs to another patient")
	}
	return o, nil
}

// checkTooth applies the treatment's tooth rule. Without an odontogram any
// dentition is accepted.
func checkTooth(t *repo.Treatment, odo *repo.Odontogram, fdi *int) error {
	if fdi == nil {
		if t.RequiresTooth {
			return apperr.Invalid("tooth_fdi", "is required for this treatment")
		}
		return nil
	}
	if odo != nil && !domain.ValidTooth(odo.Type, *fdi) {
		return apperr.Invalid("tooth_fdi", fmt.Sprintf("is not a tooth of a %s dentition", odo.Type))
	}
	if odo == nil && !domain.ValidToothAny(*fdi) {
		return apperr.Invalid("tooth_fdi", "must be a valid FDI tooth number")
	}
	return nil
}

// targetTeeth expands whole-arch treatments over the odontogram's
// dentition, otherwise checks the requested teeth against it.
func targetTeeth(t *repo.Treatment, odo *repo.Odontogram, requested []int) ([]int, error) {
	if t.AppliesToAllUpper || t.AppliesToAllLower {
		var teeth []int
		if t.AppliesToAllUpper {
			teeth = append(teeth, domain.ArchTeeth(odo.Type, domain.ArchUpper)...)
		}
		if t.AppliesToAllLower {
			teeth = append(teeth, domain.ArchTeeth(odo.Type, domain.ArchLower)...)
		}
		return teeth, nil
	}
	if len(requested) == 0 {
		return nil, apperr.Invalid("teeth", "must list at least one tooth")
	}
	fields := map[string]string{}
	teeth := make([]int, 0, len(requested))
	for i, fdi := range requested {
		if !domain.ValidTooth(odo.Type, fdi) {
			fields[fmt.Sprintf("teeth[%d]", i)] = fmt.Sprintf("is not a tooth of a %s dentition", odo.Type)
			continue
		}
		if !slices.Contains(teeth, fdi) {
			teeth = append(teeth, fdi)
		}
	}
	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Fields: fields}
	}
	return teeth, nil
}

// missingTeeth lists teeth recorded absent or extracted in the snapshot.
func missingTeeth(ctx context.Context, q repo.Queries, odontogramID uuid.UUID) (map[int]bool, error) {
	teeth, err := q.ListTeeth(ctx, odontogramID)
	if err != nil {
		return nil, fmt.Errorf("list teeth: %w", err)
	}
	out := map[int]bool{}
	for _, t := range teeth {
		if t.Status.Missing() {
			out[t.ToothFDI] = true
		}
	}
	return out, nil
}

// openTeeth lists whole-tooth procedures of the treatment that are not
// terminal yet.
func openTeeth(ctx context.Context, q repo.Queries, patientID, treatmentID uuid.UUID) (map[int]bool, error) {
	list, _, err := q.ListProcedures(ctx, repo.ProcedureFilter{PatientID: &patientID, TreatmentID: &treatmentID})
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	out := map[int]bool{}
	for _, pp := range list {
		if pp.ToothFDI == nil || pp.Surface != "" || pp.Status.Terminal(pp.IsRepair) {
			continue
		}
		out[*pp.ToothFDI] = true
	}
	return out, nil
}
