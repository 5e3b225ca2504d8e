package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/service/auth"
	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

const LocalsSessionID = "session_id"

// AuthRequired resolves a Bearer PASETO access token to its live session.
// On success the principal is attached to the request context and the
// session id is stored in c.Locals(LocalsSessionID).
func AuthRequired(svc auth.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		if h == "" {
			return auth.ErrInvalidToken
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return auth.ErrInvalidToken
		}

		sess, err := svc.Authenticate(c.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		c.Locals(LocalsSessionID, sess.ID)
		c.SetContext(reqctx.WithPrincipal(c.Context(), sess.Principal))
		return c.Next()
	}
}

// SessionIDFromFiber returns the session resolved by AuthRequired.
func SessionIDFromFiber(c fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(LocalsSessionID).(uuid.UUID)
	return id, ok
}
