package faculty

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/pkg/validate"
)

var (
	ErrFacultyNotFound      = apperr.NotFound("faculty not found")
	ErrFacultyAlreadyExists = apperr.Conflict("a faculty with that name already exists")
	ErrAdminOnly            = apperr.Forbidden("only admins can create faculties")
)

type CreateRequest struct {
	Name string `json:"name" validate:"required,notblank,max=150"`
}

type Service interface {
	Create(ctx context.Context, p domain.Principal, req CreateRequest) (*repo.Faculty, error)
	Get(ctx context.Context, id uuid.UUID) (*repo.Faculty, error)
	List(ctx context.Context) ([]*repo.Faculty, error)
}

type facultyService struct {
	db repo.Store
}

func New(db repo.Store) Service {
	return &facultyService{db: db}
}

func (s *facultyService) Create(ctx context.Context, p domain.Principal, req CreateRequest) (*repo.Faculty, error) {
	if !p.Is(domain.RoleAdmin) {
		return nil, ErrAdminOnly
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	f := &repo.Faculty{Name: strings.TrimSpace(req.Name)}
	if err := s.db.CreateFaculty(ctx, f); err != nil {
		if repo.IsUniqueViolation(err, repo.UniqueFacultyName) {
			return nil, ErrFacultyAlreadyExists
		}
		return nil, fmt.Errorf("create faculty: %w", err)
	}
	return f, nil
}

func (s *facultyService) Get(ctx context.Context, id uuid.UUID) (*repo.Faculty, error) {
	f, err := s.db.GetFaculty(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrFacultyNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *facultyService) List(ctx context.Context) ([]*repo.Faculty, error) {
	return s.db.ListFaculties(ctx)
}
