package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
)

func (r *Router) registerPatientRoutes(
	api fiber.Router,
	ph *handler.PatientHandler,
	oh *handler.OdontogramHandler,
	prh *handler.ProcedureHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	patients := api.Group("/patients", authRequired)

	// Patient CRUD
	patients.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionList), ph.List)
	patients.Post("/", requirePerm(authorize.ResourcePatient, authorize.ActionCreate), ph.Create)

	p := patients.Group("/:id")
	p.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionRead), ph.Get)
	p.Patch("/", requirePerm(authorize.ResourcePatient, authorize.ActionUpdate), ph.Update)
	p.Delete("/", requirePerm(authorize.ResourcePatient, authorize.ActionDelete), ph.Delete)

	// Consent
	p.Put("/consent", requirePerm(authorize.ResourceConsent, authorize.ActionCreate), ph.UploadConsent)
	p.Get("/consent", requirePerm(authorize.ResourceConsent, authorize.ActionRead), ph.ConsentURL)

	// Odontograms
	p.Get("/odontograms", requirePerm(authorize.ResourceOdontogram, authorize.ActionRead), oh.ListForPatient)
	p.Post("/odontograms", requirePerm(authorize.ResourceOdontogram, authorize.ActionCreate), oh.Create)
	p.Get("/odontograms/latest", requirePerm(authorize.ResourceOdontogram, authorize.ActionRead), oh.Latest)

	// Procedures
	p.Get("/procedures", requirePerm(authorize.ResourceProcedure, authorize.ActionList), prh.ListForPatient)
	p.Post("/procedures", requirePerm(authorize.ResourceProcedure, authorize.ActionCreate), prh.Create)
	p.Post("/procedures/derive", requirePerm(authorize.ResourceProcedure, authorize.ActionCreate), prh.Derive)
}
