package odontogram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/service/audit"
	"github.com/Alijeyrad/odonto_backend/pkg/validate"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ToothInput struct {
	ToothFDI int     `json:"tooth_fdi" validate:"required,fdi"`
	Surface  *string `json:"surface" validate:"omitempty,surface"`
	Status   string  `json:"status" validate:"required,oneof=sano indicado proceso finalizado contraindicado ausente extraido corona protesis"`
	Notes    string  `json:"notes" validate:"max=2000"`
}

type CreateRequest struct {
	Type       string       `json:"type" validate:"required,oneof=permanent temporary"`
	RecordedAt *time.Time   `json:"recorded_at"`
	Notes      string       `json:"notes" validate:"max=4000"`
	Teeth      []ToothInput `json:"teeth" validate:"dive"`
}

type AddTeethRequest struct {
	Teeth []ToothInput `json:"teeth" validate:"dive"`
}

type CorrectToothRequest struct {
	Status string  `json:"status" validate:"required,oneof=sano indicado proceso finalizado contraindicado ausente extraido corona protesis"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

// Snapshot is an odontogram with its tooth entries ordered by FDI number and
// surface.
type Snapshot struct {
	*repo.Odontogram
	Teeth []*repo.OdontogramTooth `json:"teeth"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, p domain.Principal, patientID uuid.UUID, req CreateRequest) (*Snapshot, error)
	AddTeeth(ctx context.Context, p domain.Principal, odontogramID uuid.UUID, req AddTeethRequest) ([]*repo.OdontogramTooth, error)
	CorrectTooth(ctx context.Context, p domain.Principal, odontogramID, toothID uuid.UUID, req CorrectToothRequest) (*repo.OdontogramTooth, error)
	Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*Snapshot, error)
	ListForPatient(ctx context.Context, p domain.Principal, patientID uuid.UUID) ([]*repo.Odontogram, error)
	Latest(ctx context.Context, p domain.Principal, patientID uuid.UUID) (*Snapshot, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type odontogramService struct {
	db    repo.Store
	audit audit.Recorder
}

func New(db repo.Store, rec audit.Recorder) Service {
	return &odontogramService{db: db, audit: rec}
}

func (s *odontogramService) Create(ctx context.Context, p domain.Principal, patientID uuid.UUID, req CreateRequest) (*Snapshot, error) {
	if !p.IsStaff() {
		return nil, ErrStaffOnly
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	typ := domain.OdontogramType(req.Type)
	if err := checkTeeth(typ, req.Teeth); err != nil {
		return nil, err
	}

	o := &repo.Odontogram{
		PatientID:  patientID,
		Type:       typ,
		RecordedBy: audit.Actor(p),
		Notes:      strings.TrimSpace(req.Notes),
		RecordedAt: time.Now().UTC(),
	}
	if req.RecordedAt != nil {
		o.RecordedAt = req.RecordedAt.UTC()
	}

	snap := &Snapshot{Odontogram: o}
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		if err := visiblePatient(ctx, q, p, patientID); err != nil {
			return err
		}
		if err := q.CreateOdontogram(ctx, o); err != nil {
			return fmt.Errorf("create odontogram: %w", err)
		}
		teeth, err := s.insertTeeth(ctx, q, o.ID, req.Teeth)
		if err != nil {
			return err
		}
		snap.Teeth = teeth
		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityOdontogram,
			EntityID: o.ID,
			Action:   audit.ActionOdontogramCreated,
			Meta: audit.Meta{}.
				Set("patient_id", patientID).
				Set("type", typ).
				Set("teeth", len(teeth)),
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *odontogramService) AddTeeth(ctx context.Context, p domain.Principal, odontogramID uuid.UUID, req AddTeethRequest) ([]*repo.OdontogramTooth, error) {
	if !p.IsStaff() {
		return nil, ErrStaffOnly
	}
	if len(req.Teeth) == 0 {
		return nil, ErrNoTeeth
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var added []*repo.OdontogramTooth
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		o, err := s.load(ctx, q, p, odontogramID)
		if err != nil {
			return err
		}
		if err := checkTeeth(o.Type, req.Teeth); err != nil {
			return err
		}
		seen := map[int]bool{}
		for _, ti := range req.Teeth {
			if seen[ti.ToothFDI] {
				continue
			}
			seen[ti.ToothFDI] = true
			if err := checkUnreferenced(ctx, q, o.ID, ti.ToothFDI); err != nil {
				return err
			}
		}
		if added, err = s.insertTeeth(ctx, q, o.ID, req.Teeth); err != nil {
			return err
		}
		for _, t := range added {
			err := s.audit.Record(ctx, q, audit.Entry{
				Actor:    audit.Actor(p),
				Entity:   audit.EntityTooth,
				EntityID: t.ID,
				Action:   audit.ActionToothAdded,
				Meta: audit.Meta{}.
					Set("odontogram_id", o.ID).
					Set("tooth_fdi", t.ToothFDI).
					Set("surface", t.Surface).
					Set("status", t.Status),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (s *odontogramService) CorrectTooth(ctx context.Context, p domain.Principal, odontogramID, toothID uuid.UUID, req CorrectToothRequest) (*repo.OdontogramTooth, error) {
	if !p.IsStaff() {
		return nil, ErrStaffOnly
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var out *repo.OdontogramTooth
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		o, err := s.load(ctx, q, p, odontogramID)
		if err != nil {
			return err
		}
		t, err := q.GetTooth(ctx, toothID)
		if err != nil || t.OdontogramID != o.ID {
			if err == nil || repo.IsNotFound(err) {
				return ErrToothNotFound
			}
			return err
		}

		if err := checkUnreferenced(ctx, q, o.ID, t.ToothFDI); err != nil {
			return err
		}

		before := *t
		t.Status = domain.ToothStatus(req.Status)
		if req.Notes != nil {
			t.Notes = strings.TrimSpace(*req.Notes)
		}
		meta := audit.Meta{}.
			Changed("status", before.Status, t.Status).
			Changed("notes", before.Notes, t.Notes)
		if len(meta) == 0 {
			out = t
			return nil
		}
		if err := q.UpdateTooth(ctx, t); err != nil {
			return fmt.Errorf("update tooth: %w", err)
		}
		out = t
		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityTooth,
			EntityID: t.ID,
			Action:   audit.ActionToothCorrected,
			Meta:     meta.Set("tooth_fdi", t.ToothFDI).Set("surface", t.Surface),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *odontogramService) Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*Snapshot, error) {
	o, err := s.load(ctx, s.db, p, id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, o)
}

func (s *odontogramService) ListForPatient(ctx context.Context, p domain.Principal, patientID uuid.UUID) ([]*repo.Odontogram, error) {
	if err := visiblePatient(ctx, s.db, p, patientID); err != nil {
		return nil, err
	}
	return s.db.ListOdontograms(ctx, patientID)
}

func (s *odontogramService) Latest(ctx context.Context, p domain.Principal, patientID uuid.UUID) (*Snapshot, error) {
	if err := visiblePatient(ctx, s.db, p, patientID); err != nil {
		return nil, err
	}
	o, err := s.db.LatestOdontogram(ctx, patientID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrOdontogramNotFound
		}
		return nil, err
	}
	return s.snapshot(ctx, o)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *odontogramService) snapshot(ctx context.Context, o *repo.Odontogram) (*Snapshot, error) {
	teeth, err := s.db.ListTeeth(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list teeth: %w", err)
	}
	return &Snapshot{Odontogram: o, Teeth: teeth}, nil
}

// load fetches an odontogram whose patient the principal can see.
func (s *odontogramService) load(ctx context.Context, q repo.Queries, p domain.Principal, id uuid.UUID) (*repo.Odontogram, error) {
	o, err := q.GetOdontogram(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrOdontogramNotFound
		}
		return nil, err
	}
	if err := visiblePatient(ctx, q, p, o.PatientID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *odontogramService) insertTeeth(ctx context.Context, q repo.Queries, odontogramID uuid.UUID, in []ToothInput) ([]*repo.OdontogramTooth, error) {
	out := make([]*repo.OdontogramTooth, 0, len(in))
	for _, ti := range in {
		surface, _ := domain.NormalizeSurface(ti.Surface)
		t := &repo.OdontogramTooth{
			OdontogramID: odontogramID,
			ToothFDI:     ti.ToothFDI,
			Surface:      surface,
			Status:       domain.ToothStatus(ti.Status),
			Notes:        strings.TrimSpace(ti.Notes),
		}
		if err := q.CreateTooth(ctx, t); err != nil {
			if repo.IsUniqueViolation(err, repo.UniqueToothSurface) {
				return nil, fmt.Errorf("tooth %d surface %q: %w", t.ToothFDI, t.Surface, ErrDuplicateTooth)
			}
			return nil, fmt.Errorf("create tooth: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// checkUnreferenced fails once a procedure carries the same odontogram and
// tooth number: the tooth's entries are then frozen.
func checkUnreferenced(ctx context.Context, q repo.Queries, odontogramID uuid.UUID, fdi int) error {
	_, refs, err := q.ListProcedures(ctx, repo.ProcedureFilter{
		OdontogramID: &odontogramID,
		ToothFDI:     &fdi,
		Page:         repo.Page{Limit: 1},
	})
	if err != nil {
		return fmt.Errorf("check tooth references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("tooth %d: %w", fdi, ErrToothReferenced)
	}
	return nil
}

// checkTeeth rejects tooth numbers outside the dentition of the snapshot.
func checkTeeth(typ domain.OdontogramType, teeth []ToothInput) error {
	fields := map[string]string{}
	for i, t := range teeth {
		if !domain.ValidTooth(typ, t.ToothFDI) {
			fields[fmt.Sprintf("teeth[%d].tooth_fdi", i)] = fmt.Sprintf("is not a tooth of a %s dentition", typ)
		}
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

func visiblePatient(ctx context.Context, q repo.Queries, p domain.Principal, patientID uuid.UUID) error {
	pt, err := q.GetPatient(ctx, patientID)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrPatientNotFound
		}
		return err
	}
	if !p.CanSeeFaculty(pt.FacultyID) {
		return ErrAccessDenied
	}
	return nil
}
