package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/service/audit"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
	"github.com/Alijeyrad/odonto_backend/pkg/email"
	"github.com/Alijeyrad/odonto_backend/pkg/util/password"
	"github.com/Alijeyrad/odonto_backend/pkg/validate"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Email       string     `json:"email" validate:"required,email,max=255"`
	FirstName   string     `json:"first_name" validate:"required,notblank,max=100"`
	LastName    string     `json:"last_name" validate:"required,notblank,max=100"`
	Role        string     `json:"role" validate:"required,oneof=admin coordinador admision alumno"`
	FacultyID   *uuid.UUID `json:"faculty_id"`
	StudentCode *string    `json:"student_code" validate:"omitempty,max=50"`
}

type UpdateRequest struct {
	FirstName   *string    `json:"first_name" validate:"omitempty,notblank,max=100"`
	LastName    *string    `json:"last_name" validate:"omitempty,notblank,max=100"`
	Role        *string    `json:"role" validate:"omitempty,oneof=admin coordinador admision alumno"`
	FacultyID   *uuid.UUID `json:"faculty_id"`
	StudentCode *string    `json:"student_code" validate:"omitempty,max=50"`
	IsActive    *bool      `json:"is_active"`
}

type ListRequest struct {
	Role      *domain.Role
	FacultyID *uuid.UUID
	Page      repo.Page
}

// Created is a new account. InitialPassword is only filled when the
// credentials could not be emailed, so the admin can hand them over.
type Created struct {
	*repo.User
	InitialPassword string `json:"initial_password,omitempty"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, p domain.Principal, req CreateRequest) (*Created, error)
	GetByID(ctx context.Context, p domain.Principal, id uuid.UUID) (*repo.User, error)
	List(ctx context.Context, p domain.Principal, req ListRequest) ([]*repo.User, int, error)
	Update(ctx context.Context, p domain.Principal, id uuid.UUID, req UpdateRequest) (*repo.User, error)
	// ResetPassword replaces the password with a generated one and mails
	// it like Create does.
	ResetPassword(ctx context.Context, p domain.Principal, id uuid.UUID) (*Created, error)
	// EnsureAdmin creates an active admin with the given credentials unless
	// the email is already taken. It reports whether an account was created.
	EnsureAdmin(ctx context.Context, email, plain string) (bool, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type userService struct {
	db        repo.Store
	audit     audit.Recorder
	mailer    email.Sender
	cfg       *config.Config
	authorize authorize.IAuthorization
	hashing   *password.Params
}

func New(
	db repo.Store,
	rec audit.Recorder,
	mailer email.Sender,
	cfg *config.Config,
	authz authorize.IAuthorization,
	hashing *password.Params,
) Service {
	return &userService{
		db:        db,
		audit:     rec,
		mailer:    mailer,
		cfg:       cfg,
		authorize: authz,
		hashing:   hashing,
	}
}

func (s *userService) Create(ctx context.Context, p domain.Principal, req CreateRequest) (*Created, error) {
	if !p.Is(domain.RoleAdmin) {
		return nil, ErrAdminOnly
	}
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	role := domain.Role(req.Role)
	studentCode := trimmed(req.StudentCode)
	if err := checkMembership(role, req.FacultyID, studentCode); err != nil {
		return nil, err
	}

	plain, hash, err := s.newPassword()
	if err != nil {
		return nil, err
	}
	u := &repo.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		FacultyID:    req.FacultyID,
		StudentCode:  studentCode,
		IsActive:     true,
	}

	err = s.db.WithTx(ctx, func(q repo.Queries) error {
		if err := s.facultyExists(ctx, q, u.FacultyID); err != nil {
			return err
		}
		if err := q.CreateUser(ctx, u); err != nil {
			if repo.IsUniqueViolation(err, repo.UniqueUserEmail) {
				return ErrEmailAlreadyExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityUser,
			EntityID: u.ID,
			Action:   audit.ActionUserCreated,
			Meta:     audit.Meta{}.Set("role", u.Role).Set("faculty_id", u.FacultyID),
		}); err != nil {
			return err
		}
		// Last step, so a policy failure rolls the row back.
		if err := authorize.AssignUserRoles(ctx, s.authorize, u.ID.String(), u.Role); err != nil {
			return fmt.Errorf("assign roles: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &Created{User: u}
	if !s.mailCredentials(ctx, u, plain, email.BuildWelcomeEmail) {
		out.InitialPassword = plain
	}
	return out, nil
}

func (s *userService) GetByID(ctx context.Context, p domain.Principal, id uuid.UUID) (*repo.User, error) {
	u, err := s.db.GetUser(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if u.ID == p.UserID {
		return u, nil
	}
	if !p.IsStaff() || !p.CanSeeFaculty(u.FacultyID) {
		return nil, ErrAccessDenied
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, p domain.Principal, req ListRequest) ([]*repo.User, int, error) {
	if !p.IsStaff() {
		return nil, 0, ErrAccessDenied
	}
	f := repo.UserFilter{Role: req.Role, FacultyID: req.FacultyID, Page: req.Page}
	if p.Role != domain.RoleAdmin {
		f.FacultyID = p.FacultyID
	}
	return s.db.ListUsers(ctx, f)
}

func (s *userService) Update(ctx context.Context, p domain.Principal, id uuid.UUID, req UpdateRequest) (*repo.User, error) {
	if !p.Is(domain.RoleAdmin) {
		return nil, ErrAdminOnly
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var (
		updated  *repo.User
		prevRole domain.Role
	)
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		u, err := q.GetUser(ctx, id)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		before := *u
		prevRole = u.Role

		if req.FirstName != nil {
			u.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			u.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.Role != nil {
			u.Role = domain.Role(*req.Role)
		}
		if req.FacultyID != nil {
			u.FacultyID = req.FacultyID
		}
		if req.StudentCode != nil {
			u.StudentCode = trimmed(req.StudentCode)
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if err := checkMembership(u.Role, u.FacultyID, u.StudentCode); err != nil {
			return err
		}

		meta := audit.Meta{}.
			Changed("first_name", before.FirstName, u.FirstName).
			Changed("last_name", before.LastName, u.LastName).
			Changed("role", before.Role, u.Role).
			Changed("faculty_id", before.FacultyID, u.FacultyID).
			Changed("student_code", before.StudentCode, u.StudentCode).
			Changed("is_active", before.IsActive, u.IsActive)
		if len(meta) == 0 {
			updated = u
			return nil
		}
		if req.FacultyID != nil {
			if err := s.facultyExists(ctx, q, u.FacultyID); err != nil {
				return err
			}
		}

		if err := q.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if err := s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityUser,
			EntityID: u.ID,
			Action:   audit.ActionUserUpdated,
			Meta:     meta,
		}); err != nil {
			return err
		}
		if u.Role != prevRole {
			if err := authorize.ReplaceUserRole(ctx, s.authorize, u.ID.String(), prevRole, u.Role); err != nil {
				return fmt.Errorf("replace role: %w", err)
			}
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *userService) ResetPassword(ctx context.Context, p domain.Principal, id uuid.UUID) (*Created, error) {
	if !p.Is(domain.RoleAdmin) {
		return nil, ErrAdminOnly
	}
	plain, hash, err := s.newPassword()
	if err != nil {
		return nil, err
	}

	var u *repo.User
	err = s.db.WithTx(ctx, func(q repo.Queries) error {
		found, err := q.GetUser(ctx, id)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		u = found
		u.PasswordHash = hash
		if err := q.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityUser,
			EntityID: u.ID,
			Action:   audit.ActionUserUpdated,
			Meta:     audit.Meta{}.Set("password", "reset"),
		})
	})
	if err != nil {
		return nil, err
	}

	out := &Created{User: u}
	if !s.mailCredentials(ctx, u, plain, email.BuildPasswordResetEmail) {
		out.InitialPassword = plain
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

func (s *userService) EnsureAdmin(ctx context.Context, addr, plain string) (bool, error) {
	addr = normalizeEmail(addr)
	if err := password.CheckPolicy(plain); err != nil {
		return false, apperr.Invalid("password", err.Error())
	}

	switch _, err := s.db.GetUserByEmail(ctx, addr); {
	case err == nil:
		return false, nil
	case !repo.IsNotFound(err):
		return false, fmt.Errorf("look up admin: %w", err)
	}

	hash, err := password.HashWithParams(plain, s.hashing)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	u := &repo.User{
		Email:        addr,
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "Odonto",
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}

	err = s.db.WithTx(ctx, func(q repo.Queries) error {
		if err := q.CreateUser(ctx, u); err != nil {
			if repo.IsUniqueViolation(err, repo.UniqueUserEmail) {
				return ErrEmailAlreadyExists
			}
			return fmt.Errorf("create admin: %w", err)
		}
		if err := s.audit.Record(ctx, q, audit.Entry{
			Entity:   audit.EntityUser,
			EntityID: u.ID,
			Action:   audit.ActionUserCreated,
			Meta:     audit.Meta{}.Set("role", u.Role).Set("bootstrap", true),
		}); err != nil {
			return err
		}
		if err := authorize.AssignUserRoles(ctx, s.authorize, u.ID.String(), u.Role); err != nil {
			return fmt.Errorf("assign roles: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrEmailAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	slog.Info("bootstrap admin created", "user_id", u.ID, "email", u.Email)
	return true, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *userService) newPassword() (plain, hash string, err error) {
	plain = password.Generate(s.cfg.Authentication.DefaultPasswordLength)
	hash, err = password.HashWithParams(plain, s.hashing)
	if err != nil {
		return "", "", fmt.Errorf("hash password: %w", err)
	}
	return plain, hash, nil
}

// mailCredentials reports whether the credentials reached the mail server.
// Delivery problems never fail the account operation.
func (s *userService) mailCredentials(
	ctx context.Context,
	u *repo.User,
	plain string,
	build func(email.CredentialsEmailData, string) email.Message,
) bool {
	if s.mailer == nil {
		return false
	}
	msg := build(email.CredentialsEmailData{
		FirstName: u.FirstName,
		Email:     u.Email,
		Password:  plain,
		Role:      authorize.RoleDisplayNamesES[authorize.DomainRoleToRBACRole[u.Role]],
		LoginURL:  s.cfg.Email.LoginURL,
		AppName:   s.cfg.Email.AppName,
	}, s.cfg.Email.Language)

	if err := s.mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, email.ErrDisabled) {
			slog.Debug("credentials email skipped, email disabled", "user_id", u.ID)
		} else {
			slog.Warn("send credentials email", "user_id", u.ID, "error", err)
		}
		return false
	}
	return true
}

func (s *userService) facultyExists(ctx context.Context, q repo.Queries, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := q.GetFaculty(ctx, *id); err != nil {
		if repo.IsNotFound(err) {
			return ErrFacultyNotFound
		}
		return fmt.Errorf("load faculty: %w", err)
	}
	return nil
}

// checkMembership enforces that clinic roles belong to a faculty and that
// students carry their enrolment code.
func checkMembership(role domain.Role, facultyID *uuid.UUID, studentCode *string) error {
	if role != domain.RoleAdmin && facultyID == nil {
		return ErrFacultyRequired
	}
	if role == domain.RoleAlumno && studentCode == nil {
		return ErrStudentCodeRequired
	}
	return nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func normalizeEmail(addr string) string { return strings.ToLower(strings.TrimSpace(addr)) }
