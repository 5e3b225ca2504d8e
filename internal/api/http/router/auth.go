package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
)

func (r *Router) registerAuthRoutes(api fiber.Router, h *handler.AuthHandler, authRequired fiber.Handler, requireSelf permFunc) {
	a := api.Group("/auth")
	a.Post("/login", h.Login)
	a.Post("/refresh", h.Refresh)

	a.Post("/logout", authRequired, requireSelf(authorize.ResourceAuthSession, authorize.ActionDelete), h.Logout)
	a.Get("/me", authRequired, requireSelf(authorize.ResourceUser, authorize.ActionRead), h.Me)
	a.Post("/change-password", authRequired, requireSelf(authorize.ResourceAuthSession, authorize.ActionUpdate), h.ChangePassword)
}
