package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
)

func (r *Router) registerCatalogRoutes(api fiber.Router, h *handler.CatalogHandler, authRequired fiber.Handler, requirePerm permFunc) {
	chairs := api.Group("/chairs", authRequired)
	chairs.Get("/", requirePerm(authorize.ResourceChair, authorize.ActionRead), h.ListChairs)
	chairs.Post("/", requirePerm(authorize.ResourceChair, authorize.ActionCreate), h.CreateChair)
	chairs.Get("/:id", requirePerm(authorize.ResourceChair, authorize.ActionRead), h.GetChair)

	treatments := api.Group("/treatments", authRequired)
	treatments.Get("/", requirePerm(authorize.ResourceTreatment, authorize.ActionRead), h.ListTreatments)
	treatments.Post("/", requirePerm(authorize.ResourceTreatment, authorize.ActionCreate), h.CreateTreatment)
	treatments.Get("/:id", requirePerm(authorize.ResourceTreatment, authorize.ActionRead), h.GetTreatment)
	treatments.Post("/:id/subclasses", requirePerm(authorize.ResourceTreatment, authorize.ActionUpdate), h.CreateSubclass)
	treatments.Post("/:id/options", requirePerm(authorize.ResourceTreatment, authorize.ActionUpdate), h.CreateOption)
}
