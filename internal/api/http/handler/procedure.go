package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/service/procedure"
)

type ProcedureHandler struct {
	svc procedure.Service
}

func NewProcedureHandler(svc procedure.Service) *ProcedureHandler {
	return &ProcedureHandler{svc: svc}
}

// POST /api/v1/patients/:id/procedures
func (h *ProcedureHandler) Create(c fiber.Ctx) error {
	patientID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req procedure.CreateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	pp, err := h.svc.Create(c.Context(), principal(c), patientID, req)
	if err != nil {
		return err
	}
	return created(c, pp)
}

// POST /api/v1/patients/:id/procedures/derive
func (h *ProcedureHandler) Derive(c fiber.Ctx) error {
	patientID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req procedure.DeriveRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	res, err := h.svc.Derive(c.Context(), principal(c), patientID, req)
	if err != nil {
		return err
	}
	return created(c, res)
}

// GET /api/v1/patients/:id/procedures?status=
func (h *ProcedureHandler) ListForPatient(c fiber.Ctx) error {
	patientID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var status *domain.ProcedureStatus
	if s := c.Query("status"); s != "" {
		st, err := domain.ParseProcedureStatus(s)
		if err != nil {
			return apperr.Invalid("status", "is not a known procedure status")
		}
		status = &st
	}

	list, err := h.svc.ListForPatient(c.Context(), principal(c), patientID, status)
	if err != nil {
		return err
	}
	return ok(c, list)
}

// GET /api/v1/procedures/available?chair_id=&treatment_id=&page=&per_page=
func (h *ProcedureHandler) ListAvailable(c fiber.Ctx) error {
	f := procedure.AvailableFilter{Page: pageFromQuery(c)}

	var err error
	if f.ChairID, err = queryID(c, "chair_id"); err != nil {
		return err
	}
	if f.TreatmentID, err = queryID(c, "treatment_id"); err != nil {
		return err
	}

	list, total, err := h.svc.ListAvailable(c.Context(), principal(c), f)
	if err != nil {
		return err
	}
	return paged(c, list, total, f.Page)
}

// GET /api/v1/procedures/:id
func (h *ProcedureHandler) Get(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	pp, err := h.svc.Get(c.Context(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, pp)
}

// POST /api/v1/procedures/:id/override
func (h *ProcedureHandler) Override(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req procedure.OverrideRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	pp, err := h.svc.OverrideStatus(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, pp)
}

// PUT /api/v1/procedures/:id/repair
func (h *ProcedureHandler) SetRepair(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		IsRepair *bool `json:"is_repair"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	if body.IsRepair == nil {
		return apperr.Invalid("is_repair", "is required")
	}

	pp, err := h.svc.SetRepair(c.Context(), principal(c), id, *body.IsRepair)
	if err != nil {
		return err
	}
	return ok(c, pp)
}
