package middleware_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/odonto_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/service/auth"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

// stubAuth accepts a single token.
type stubAuth struct {
	auth.Service
	token string
	sess  *auth.Session
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*auth.Session, error) {
	if token != s.token {
		return nil, auth.ErrInvalidToken
	}
	return s.sess, nil
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler(false)})
}

func TestRequestID(t *testing.T) {
	app := newApp()
	app.Use(middleware.RequestID())
	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString(reqctx.RequestIDFromContext(c.Context()))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get(middleware.HeaderRequestID))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(middleware.HeaderRequestID))
	assert.NoError(t, err)
}

func TestAuthRequired(t *testing.T) {
	userID := uuid.New()
	sessID := uuid.New()
	svc := &stubAuth{
		token: "good",
		sess:  &auth.Session{ID: sessID, Principal: domain.Principal{UserID: userID, Role: domain.RoleAlumno}},
	}

	app := newApp()
	app.Get("/me", middleware.AuthRequired(svc), func(c fiber.Ctx) error {
		p, ok := reqctx.PrincipalFromContext(c.Context())
		require.True(t, ok)
		sid, ok := middleware.SessionIDFromFiber(c)
		require.True(t, ok)
		assert.Equal(t, sessID, sid)
		return c.SendString(p.UserID.String())
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic good", fiber.StatusUnauthorized},
		{"unknown token", "Bearer bad", fiber.StatusUnauthorized},
		{"valid token", "Bearer good", fiber.StatusOK},
		{"case insensitive scheme", "bearer good", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequirePermission(t *testing.T) {
	ctx := context.Background()
	e, cleanup, err := authorize.NewMemoryEnforcer("")
	require.NoError(t, err)
	t.Cleanup(func() { cleanup(ctx) })
	authz, err := authorize.NewAuthorization(e)
	require.NoError(t, err)
	require.NoError(t, authorize.SeedDefaultPolicies(ctx, authz))

	admin := uuid.New()
	student := uuid.New()
	require.NoError(t, authorize.AssignUserRoles(ctx, authz, admin.String(), domain.RoleAdmin))
	require.NoError(t, authorize.AssignUserRoles(ctx, authz, student.String(), domain.RoleAlumno))

	as := func(id uuid.UUID) fiber.Handler {
		return func(c fiber.Ctx) error {
			if id != uuid.Nil {
				c.SetContext(reqctx.WithPrincipal(c.Context(), domain.Principal{UserID: id}))
			}
			return c.Next()
		}
	}

	tests := []struct {
		name   string
		user   uuid.UUID
		status int
	}{
		{"anonymous", uuid.Nil, fiber.StatusUnauthorized},
		{"student lacks permission", student, fiber.StatusForbidden},
		{"admin allowed", admin, fiber.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Get("/users", as(tt.user),
				middleware.RequirePermission(authz, authorize.ResourceUser, authorize.ActionList),
				func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/users", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestLimiterInMemory(t *testing.T) {
	app := newApp()
	app.Use(middleware.NewLimiter(nil, 2))
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	var last int
	for range 3 {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, err)
		last = resp.StatusCode
	}
	assert.Equal(t, fiber.StatusTooManyRequests, last)
}
