package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	pasetotoken "github.com/Alijeyrad/odonto_backend/pkg/paseto"
	"github.com/Alijeyrad/odonto_backend/pkg/util/password"
	"github.com/Alijeyrad/odonto_backend/pkg/validate"
)

const (
	defaultMaxLoginAttempts = 5
	defaultLockoutMinutes   = 15
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=128"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until access token expires
}

// Session is what an access token resolves to.
type Session struct {
	ID        uuid.UUID
	Principal domain.Principal
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	// Authenticate verifies an access token against the live session and
	// the current state of its user.
	Authenticate(ctx context.Context, accessToken string) (*Session, error)
	Me(ctx context.Context, p domain.Principal) (*repo.User, error)
	ChangePassword(ctx context.Context, p domain.Principal, req ChangePasswordRequest) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	cfg      *config.Config
	db       repo.Store
	paseto   *pasetotoken.Manager
	sessions SessionStore
	hashing  *password.Params
}

func New(
	cfg *config.Config,
	db repo.Store,
	paseto *pasetotoken.Manager,
	sessions SessionStore,
	hashing *password.Params,
) Service {
	return &authService{
		cfg:      cfg,
		db:       db,
		paseto:   paseto,
		sessions: sessions,
		hashing:  hashing,
	}
}

func (s *authService) maxAttempts() int {
	if n := s.cfg.Authentication.MaxLoginAttempts; n > 0 {
		return n
	}
	return defaultMaxLoginAttempts
}

func (s *authService) lockout() time.Duration {
	m := s.cfg.Authentication.LockoutMinutes
	if m <= 0 {
		m = defaultLockoutMinutes
	}
	return time.Duration(m) * time.Minute
}

// sessionTTL is the idle lifetime of a session. Every authenticated request
// slides it forward; it never outlives the refresh token.
func (s *authService) sessionTTL() time.Duration {
	ttl := time.Duration(s.cfg.Authentication.SessionTTLMinutes) * time.Minute
	if ttl <= 0 || ttl > s.paseto.RefreshTTL() {
		return s.paseto.RefreshTTL()
	}
	return ttl
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	failures, err := s.sessions.Failures(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("read login failures: %w", err)
	}
	if failures >= s.maxAttempts() {
		return nil, ErrAccountLocked
	}

	u, err := s.db.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if repo.IsNotFound(err) {
			s.recordFailedLogin(ctx, req.Email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := password.Verify(u.PasswordHash, req.Password); err != nil {
		s.recordFailedLogin(ctx, req.Email)
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}

	if err := s.sessions.ResetFailures(ctx, req.Email); err != nil {
		slog.Warn("reset login failures", "user_id", u.ID, "error", err)
	}
	if password.NeedsRehash(u.PasswordHash, s.hashing) {
		s.rehash(ctx, u, req.Password)
	}
	return s.createSession(ctx, u)
}

// rehash upgrades a stored hash to the configured argon2 cost. Failure only
// costs the upgrade, never the login.
func (s *authService) rehash(ctx context.Context, u *repo.User, plain string) {
	hash, err := password.HashWithParams(plain, s.hashing)
	if err != nil {
		slog.Warn("rehash password", "user_id", u.ID, "error", err)
		return
	}
	u.PasswordHash = hash
	if err := s.db.UpdateUser(ctx, u); err != nil {
		slog.Warn("store rehashed password", "user_id", u.ID, "error", err)
		return
	}
	slog.Debug("password hash upgraded", "user_id", u.ID)
}

func (s *authService) recordFailedLogin(ctx context.Context, email string) {
	n, err := s.sessions.RecordFailure(ctx, email, s.lockout())
	if err != nil {
		slog.Warn("record login failure", "error", err)
		return
	}
	if n == s.maxAttempts() {
		slog.Info("login locked after repeated failures", "attempts", n, "lockout", s.lockout())
	}
}

func (s *authService) createSession(ctx context.Context, u *repo.User) (*AuthTokens, error) {
	sessionID := uuid.Must(uuid.NewV7())
	if err := s.sessions.Create(ctx, sessionID, u.ID, s.sessionTTL()); err != nil {
		return nil, err
	}

	access, err := s.paseto.IssueAccess(u.ID, &sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.paseto.IssueRefresh(u.ID, &sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
	}, nil
}

// ---------------------------------------------------------------------------
// RefreshTokens
// ---------------------------------------------------------------------------

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.paseto.Verify(refreshToken)
	if err != nil || claims.Type != pasetotoken.TokenTypeRefresh || claims.SessionID == nil {
		return nil, ErrInvalidToken
	}

	userID, err := s.sessions.Get(ctx, *claims.SessionID)
	if err != nil {
		return nil, err
	}
	if userID != claims.UserID {
		return nil, ErrInvalidToken
	}
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.sessions.Extend(ctx, *claims.SessionID, s.sessionTTL()); err != nil {
		slog.Warn("extend session", "session_id", claims.SessionID, "error", err)
	}

	// Refresh token stays the same until logout.
	access, err := s.paseto.IssueAccess(claims.UserID, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
	}, nil
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		slog.Debug("logout: session already expired", "session_id", sessionID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------------

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := s.paseto.Verify(accessToken)
	if err != nil || claims.Type != pasetotoken.TokenTypeAccess || claims.SessionID == nil {
		return nil, ErrInvalidToken
	}

	userID, err := s.sessions.Get(ctx, *claims.SessionID)
	if err != nil {
		return nil, err
	}
	if userID != claims.UserID {
		return nil, ErrInvalidToken
	}

	u, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Extend(ctx, *claims.SessionID, s.sessionTTL()); err != nil {
		slog.Warn("extend session", "session_id", claims.SessionID, "error", err)
	}

	return &Session{
		ID: *claims.SessionID,
		Principal: domain.Principal{
			UserID:    u.ID,
			Role:      u.Role,
			FacultyID: u.FacultyID,
		},
	}, nil
}

func (s *authService) activeUser(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	u, err := s.db.GetUser(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// Me / ChangePassword
// ---------------------------------------------------------------------------

func (s *authService) Me(ctx context.Context, p domain.Principal) (*repo.User, error) {
	return s.activeUser(ctx, p.UserID)
}

func (s *authService) ChangePassword(ctx context.Context, p domain.Principal, req ChangePasswordRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if err := password.CheckPolicy(req.NewPassword); err != nil {
		return apperr.Invalid("new_password", err.Error())
	}

	return s.db.WithTx(ctx, func(q repo.Queries) error {
		u, err := q.GetUser(ctx, p.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if err := password.Verify(u.PasswordHash, req.CurrentPassword); err != nil {
			if errors.Is(err, password.ErrMismatch) {
				return ErrWrongPassword
			}
			return err
		}
		hash, err := password.HashWithParams(req.NewPassword, s.hashing)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
		return q.UpdateUser(ctx, u)
	})
}
