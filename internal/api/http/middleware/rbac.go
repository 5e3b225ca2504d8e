package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
)

// RequirePermission checks that the authenticated user holds the permission
// in the sys domain. It must run after AuthRequired.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return enforce(auth, resource, action, func(authorize.GroupSubject) authorize.Domain {
		return authorize.DomainSys
	})
}

// RequireSelfPermission checks the permission in the user's private domain,
// for resources every account owns, such as its notifications.
func RequireSelfPermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return enforce(auth, resource, action, func(s authorize.GroupSubject) authorize.Domain {
		return authorize.UserDomain(string(s))
	})
}

func enforce(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action, domainOf func(authorize.GroupSubject) authorize.Domain) fiber.Handler {
	return func(c fiber.Ctx) error {
		subject, err := authorize.SubjectFromContext(c.Context())
		if err != nil {
			return apperr.Unauthenticated("authentication required")
		}

		if err := auth.MustEnforce(c.Context(), subject, domainOf(subject), resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return apperr.Forbidden("missing permission %s:%s", resource, action)
			}
			return err
		}

		return c.Next()
	}
}
