package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
)

func (r *Router) registerClinicalRoutes(
	api fiber.Router,
	oh *handler.OdontogramHandler,
	prh *handler.ProcedureHandler,
	ah *handler.AssignmentHandler,
	phh *handler.PhotoHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	odontograms := api.Group("/odontograms/:id", authRequired)
	odontograms.Get("/", requirePerm(authorize.ResourceOdontogram, authorize.ActionRead), oh.Get)
	odontograms.Post("/teeth", requirePerm(authorize.ResourceOdontogram, authorize.ActionUpdate), oh.AddTeeth)
	odontograms.Patch("/teeth/:tooth_id", requirePerm(authorize.ResourceOdontogram, authorize.ActionUpdate), oh.CorrectTooth)

	procedures := api.Group("/procedures", authRequired)
	procedures.Get("/available", requirePerm(authorize.ResourceProcedure, authorize.ActionList), prh.ListAvailable)
	procedures.Get("/:id", requirePerm(authorize.ResourceProcedure, authorize.ActionRead), prh.Get)
	procedures.Post("/:id/override", requirePerm(authorize.ResourceProcedure, authorize.ActionOverride), prh.Override)
	procedures.Put("/:id/repair", requirePerm(authorize.ResourceProcedure, authorize.ActionUpdate), prh.SetRepair)
	procedures.Post("/:id/claim", requirePerm(authorize.ResourceAssignment, authorize.ActionClaim), ah.Claim)
	procedures.Get("/:id/photos", requirePerm(authorize.ResourcePhoto, authorize.ActionRead), phh.ListForProcedure)
	procedures.Post("/:id/photos", requirePerm(authorize.ResourcePhoto, authorize.ActionCreate), phh.UploadForProcedure)

	assignments := api.Group("/assignments", authRequired)
	assignments.Get("/", requirePerm(authorize.ResourceAssignment, authorize.ActionList), ah.List)
	assignments.Get("/mine", requirePerm(authorize.ResourceAssignment, authorize.ActionList), ah.ListMine)
	assignments.Get("/:id", requirePerm(authorize.ResourceAssignment, authorize.ActionRead), ah.Get)
	assignments.Post("/:id/complete", requirePerm(authorize.ResourceAssignment, authorize.ActionComplete), ah.Complete)
	assignments.Post("/:id/abandon", requirePerm(authorize.ResourceAssignment, authorize.ActionAbandon), ah.Abandon)
	assignments.Patch("/:id/notes", requirePerm(authorize.ResourceAssignment, authorize.ActionUpdate), ah.AmendNotes)
	assignments.Get("/:id/sessions", requirePerm(authorize.ResourceSession, authorize.ActionRead), ah.ListSessions)
	assignments.Post("/:id/sessions", requirePerm(authorize.ResourceSession, authorize.ActionCreate), ah.RecordSession)
	assignments.Get("/:id/photos", requirePerm(authorize.ResourcePhoto, authorize.ActionRead), phh.ListForAssignment)
	assignments.Post("/:id/photos", requirePerm(authorize.ResourcePhoto, authorize.ActionCreate), phh.UploadForAssignment)

	api.Get("/photos/:id/url", authRequired, requirePerm(authorize.ResourcePhoto, authorize.ActionRead), phh.URL)
}
