package catalog

import (
	"context"
	"fmt"
	"strings"

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

type CreateChairRequest struct {
	Name        string `json:"name" validate:"notblank,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

type CreateTreatmentRequest struct {
	ChairID           uuid.UUID `json:"chair_id" validate:"required"`
	Code              string    `json:"code" validate:"notblank,max=32"`
	Name              string    `json:"name" validate:"notblank,max=200"`
	RequiresTooth     bool      `json:"requires_tooth"`
	AppliesToAllUpper bool      `json:"applies_to_all_upper"`
	AppliesToAllLower bool      `json:"applies_to_all_lower"`
	RequiredSessions  int       `json:"required_sessions" validate:"omitempty,min=1,max=50"`
}

type CreateSubclassRequest struct {
	Name string `json:"name" validate:"notblank,max=120"`
}

type CreateOptionRequest struct {
	SubclassID *uuid.UUID `json:"subclass_id"`
	Name       string     `json:"name" validate:"notblank,max=120"`
}

// TreatmentDetail is a treatment with its subclasses and options.
type TreatmentDetail struct {
	*repo.Treatment
	Subclasses []*repo.TreatmentSubclass       `json:"subclasses"`
	Options    []*repo.TreatmentSubclassOption `json:"options"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	CreateChair(ctx context.Context, p domain.Principal, req CreateChairRequest) (*repo.Chair, error)
	GetChair(ctx context.Context, id uuid.UUID) (*repo.Chair, error)
	ListChairs(ctx context.Context) ([]*repo.Chair, error)

	CreateTreatment(ctx context.Context, p domain.Principal, req CreateTreatmentRequest) (*repo.Treatment, error)
	GetTreatment(ctx context.Context, id uuid.UUID) (*TreatmentDetail, error)
	ListTreatments(ctx context.Context, chairID *uuid.UUID) ([]*repo.Treatment, error)

	CreateSubclass(ctx context.Context, p domain.Principal, treatmentID uuid.UUID, req CreateSubclassRequest) (*repo.TreatmentSubclass, error)
	CreateOption(ctx context.Context, p domain.Principal, treatmentID uuid.UUID, req CreateOptionRequest) (*repo.TreatmentSubclassOption, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type catalogService struct {
	db    repo.Store
	audit audit.Recorder
}

func New(db repo.Store, rec audit.Recorder) Service {
	return &catalogService{db: db, audit: rec}
}

func canWrite(p domain.Principal) error {
	if !p.Is(domain.RoleAdmin, domain.RoleCoordinador) {
		return ErrForbidden
	}
	return nil
}

func (s *catalogService) record(ctx context.Context, q repo.Queries, p domain.Principal, id uuid.UUID, kind, name string) error {
	return s.audit.Record(ctx, q, audit.Entry{
		Actor:    audit.Actor(p),
		Entity:   audit.EntityCatalog,
		EntityID: id,
		Action:   audit.ActionCatalogEntryCreated,
		Meta:     audit.Meta{}.Set("kind", kind).Set("name", name),
	})
}

func (s *catalogService) CreateChair(ctx context.Context, p domain.Principal, req CreateChairRequest) (*repo.Chair, error) {
	if err := canWrite(p); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	c := &repo.Chair{Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		if err := q.CreateChair(ctx, c); err != nil {
			if repo.IsUniqueViolation(err, repo.UniqueChairName) {
				return ErrChairExists
			}
			return fmt.Errorf("create chair: %w", err)
		}
		return s.record(ctx, q, p, c.ID, "chair", c.Name)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *catalogService) GetChair(ctx context.Context, id uuid.UUID) (*repo.Chair, error) {
	c, err := s.db.GetChair(ctx, id)
	if repo.IsNotFound(err) {
		return nil, ErrChairNotFound
	}
	return c, err
}

func (s *catalogService) ListChairs(ctx context.Context) ([]*repo.Chair, error) {
	return s.db.ListChairs(ctx)
}

func (s *catalogService) CreateTreatment(ctx context.Context, p domain.Principal, req CreateTreatmentRequest) (*repo.Treatment, error) {
	if err := canWrite(p); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if (req.AppliesToAllUpper || req.AppliesToAllLower) && !req.RequiresTooth {
		return nil, apperr.Invalid("requires_tooth", "must be true when the treatment covers a whole arch")
	}
	if req.RequiredSessions == 0 {
		req.RequiredSessions = 1
	}

	t := &repo.Treatment{
		ChairID:           req.ChairID,
		Code:              strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:              strings.TrimSpace(req.Name),
		RequiresTooth:     req.RequiresTooth,
		AppliesToAllUpper: req.AppliesToAllUpper,
		AppliesToAllLower: req.AppliesToAllLower,
		RequiredSessions:  req.RequiredSessions,
	}
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		if err := q.CreateTreatment(ctx, t); err != nil {
			switch {
			case repo.IsUniqueViolation(err, repo.UniqueTreatmentCode):
				return ErrTreatmentExists
			case repo.IsConstraintError(err):
				return ErrChairNotFound
			}
			return fmt.Errorf("create treatment: %w", err)
		}
		return s.record(ctx, q, p, t.ID, "treatment", t.Code)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *catalogService) GetTreatment(ctx context.Context, id uuid.UUID) (*TreatmentDetail, error) {
	t, err := s.db.GetTreatment(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTreatmentNotFound
		}
		return nil, err
	}
	subclasses, err := s.db.ListSubclasses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list subclasses: %w", err)
	}
	options, err := s.db.ListOptions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	return &TreatmentDetail{Treatment: t, Subclasses: subclasses, Options: options}, nil
}

func (s *catalogService) ListTreatments(ctx context.Context, chairID *uuid.UUID) ([]*repo.Treatment, error) {
	return s.db.ListTreatments(ctx, repo.TreatmentFilter{ChairID: chairID})
}

func (s *catalogService) CreateSubclass(ctx context.Context, p domain.Principal, treatmentID uuid.UUID, req CreateSubclassRequest) (*repo.TreatmentSubclass, error) {
	if err := canWrite(p); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	sc := &repo.TreatmentSubclass{TreatmentID: treatmentID, Name: strings.TrimSpace(req.Name)}
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		if err := q.CreateSubclass(ctx, sc); err != nil {
			switch {
			case repo.IsUniqueViolation(err, repo.UniqueSubclassName):
				return ErrSubclassExists
			case repo.IsConstraintError(err):
				return ErrTreatmentNotFound
			}
			return fmt.Errorf("create subclass: %w", err)
		}
		return s.record(ctx, q, p, sc.ID, "subclass", sc.Name)
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *catalogService) CreateOption(ctx context.Context, p domain.Principal, treatmentID uuid.UUID, req CreateOptionRequest) (*repo.TreatmentSubclassOption, error) {
	if err := canWrite(p); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	o := &repo.TreatmentSubclassOption{TreatmentID: treatmentID, SubclassID: req.SubclassID, Name: strings.TrimSpace(req.Name)}
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		if _, err := q.GetTreatment(ctx, treatmentID); err != nil {
			if repo.IsNotFound(err) {
				return ErrTreatmentNotFound
			}
			return err
		}
		if req.SubclassID != nil {
			subclasses, err := q.ListSubclasses(ctx, treatmentID)
			if err != nil {
				return fmt.Errorf("list subclasses: %w", err)
			}
			if !containsSubclass(subclasses, *req.SubclassID) {
				return ErrSubclassNotFound
			}
		}
		if err := q.CreateOption(ctx, o); err != nil {
			return fmt.Errorf("create option: %w", err)
		}
		return s.record(ctx, q, p, o.ID, "option", o.Name)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func containsSubclass(list []*repo.TreatmentSubclass, id uuid.UUID) bool {
	for _, sc := range list {
		if sc.ID == id {
			return true
		}
	}
	return false
}
