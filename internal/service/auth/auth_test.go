package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/testutil"
	pasetotoken "github.com/Alijeyrad/odonto_backend/pkg/paseto"
	"github.com/Alijeyrad/odonto_backend/pkg/util/password"
)

var testParams = &password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

const testPassword = "correct horse battery"

type harness struct {
	svc      Service
	fx       *testutil.Fixture
	sessions *memorySessions
	paseto   *pasetotoken.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fx := testutil.New(t)

	hash, err := password.HashWithParams(testPassword, testParams)
	require.NoError(t, err)
	for _, u := range []*repo.User{fx.Admin, fx.StudentA} {
		u.PasswordHash = hash
		require.NoError(t, fx.Store.UpdateUser(context.Background(), u))
	}

	mgr, err := pasetotoken.New(pasetotoken.Config{
		Mode:       pasetotoken.ModeLocal,
		Issuer:     "odonto",
		Audience:   "odonto-api",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}, pasetotoken.NewLocalKeys())
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Authentication.MaxLoginAttempts = 3
	cfg.Authentication.LockoutMinutes = 10
	cfg.Authentication.SessionTTLMinutes = 60

	sessions := NewMemorySessions().(*memorySessions)
	return &harness{
		svc:      New(cfg, fx.Store, mgr, sessions, testParams),
		fx:       fx,
		sessions: sessions,
		paseto:   mgr,
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tokens, err := h.svc.Login(ctx, LoginRequest{Email: "  Alumno.A@odonto.test ", Password: testPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, int64(900), tokens.ExpiresIn)

	sess, err := h.svc.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, h.fx.StudentA.ID, sess.Principal.UserID)
	assert.Equal(t, h.fx.StudentA.Role, sess.Principal.Role)
	assert.Equal(t, h.fx.StudentA.FacultyID, sess.Principal.FacultyID)

	_, err = h.svc.Authenticate(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token is not an access token")

	me, err := h.svc.Me(ctx, sess.Principal)
	require.NoError(t, err)
	assert.Equal(t, "alumno.a@odonto.test", me.Email)
}

func TestLoginRejections(t *testing.T) {
	tests := []struct {
		name  string
		req   LoginRequest
		setup func(t *testing.T, h *harness)
		want  error
	}{
		{name: "wrong password", req: LoginRequest{Email: "alumno.a@odonto.test", Password: "nope"}, want: ErrInvalidCredentials},
		{name: "unknown email", req: LoginRequest{Email: "ghost@odonto.test", Password: testPassword}, want: ErrInvalidCredentials},
		{name: "missing fields", req: LoginRequest{Email: "not-an-email"}, want: apperr.ErrValidation},
		{
			name: "inactive account",
			req:  LoginRequest{Email: "alumno.a@odonto.test", Password: testPassword},
			setup: func(t *testing.T, h *harness) {
				h.fx.StudentA.IsActive = false
				require.NoError(t, h.fx.Store.UpdateUser(context.Background(), h.fx.StudentA))
			},
			want: ErrAccountInactive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(t, h)
			}
			_, err := h.svc.Login(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoginLockout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	now := time.Now()
	h.sessions.now = func() time.Time { return now }

	for range 3 {
		_, err := h.svc.Login(ctx, LoginRequest{Email: "alumno.a@odonto.test", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := h.svc.Login(ctx, LoginRequest{Email: "alumno.a@odonto.test", Password: testPassword})
	require.ErrorIs(t, err, ErrAccountLocked, "correct password is refused while locked")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	now = now.Add(11 * time.Minute)
	_, err = h.svc.Login(ctx, LoginRequest{Email: "alumno.a@odonto.test", Password: testPassword})
	require.NoError(t, err)

	n, err := h.sessions.Failures(ctx, "alumno.a@odonto.test")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRefreshAndLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tokens, err := h.svc.Login(ctx, LoginRequest{Email: "admin@odonto.test", Password: testPassword})
	require.NoError(t, err)

	_, err = h.svc.RefreshTokens(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	refreshed, err := h.svc.RefreshTokens(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.RefreshToken, refreshed.RefreshToken)

	sess, err := h.svc.Authenticate(ctx, refreshed.AccessToken)
	require.NoError(t, err)

	require.NoError(t, h.svc.Logout(ctx, sess.ID))
	require.NoError(t, h.svc.Logout(ctx, sess.ID), "logging out twice is harmless")

	_, err = h.svc.Authenticate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = h.svc.RefreshTokens(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAuthenticateRejectsForeignSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sid := uuid.Must(uuid.NewV7())
	require.NoError(t, h.sessions.Create(ctx, sid, h.fx.Admin.ID, time.Hour))
	tok, err := h.paseto.IssueAccess(h.fx.StudentA.ID, &sid)
	require.NoError(t, err)

	_, err = h.svc.Authenticate(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	now := time.Now()
	h.sessions.now = func() time.Time { return now }

	tokens, err := h.svc.Login(ctx, LoginRequest{Email: "admin@odonto.test", Password: testPassword})
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	_, err = h.svc.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err, "activity slides the idle window")

	now = now.Add(61 * time.Minute)
	_, err = h.svc.Authenticate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := testutil.Principal(h.fx.StudentA)

	err := h.svc.ChangePassword(ctx, p, ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "a new passphrase"})
	require.ErrorIs(t, err, ErrWrongPassword)
	assert.Equal(t, map[string]string{"current_password": "is incorrect"}, apperr.Fields(err))

	err = h.svc.ChangePassword(ctx, p, ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "short"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, h.svc.ChangePassword(ctx, p, ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "a new passphrase"}))

	_, err = h.svc.Login(ctx, LoginRequest{Email: "alumno.a@odonto.test", Password: testPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = h.svc.Login(ctx, LoginRequest{Email: "alumno.a@odonto.test", Password: "a new passphrase"})
	assert.NoError(t, err)
}

func TestLoginUpgradesOutdatedHash(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	old := &password.Params{Memory: 2048, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	hash, err := password.HashWithParams(testPassword, old)
	require.NoError(t, err)
	h.fx.Admin.PasswordHash = hash
	require.NoError(t, h.fx.Store.UpdateUser(ctx, h.fx.Admin))

	_, err = h.svc.Login(ctx, LoginRequest{Email: h.fx.Admin.Email, Password: testPassword})
	require.NoError(t, err)

	u, err := h.fx.Store.GetUser(ctx, h.fx.Admin.ID)
	require.NoError(t, err)
	assert.NotEqual(t, hash, u.PasswordHash)
	assert.False(t, password.NeedsRehash(u.PasswordHash, testParams))
	assert.True(t, password.Match(u.PasswordHash, testPassword))
}
