package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
)

func (r *Router) registerAuditRoutes(api fiber.Router, h *handler.AuditHandler, authRequired fiber.Handler, requirePerm permFunc) {
	api.Get("/audits", authRequired, requirePerm(authorize.ResourceAudit, authorize.ActionRead), h.List)
}
