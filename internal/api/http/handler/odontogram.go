package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/service/odontogram"
)

type OdontogramHandler struct {
	svc odontogram.Service
}

func NewOdontogramHandler(svc odontogram.Service) *OdontogramHandler {
	return &OdontogramHandler{svc: svc}
}

// POST /api/v1/patients/:id/odontograms
func (h *OdontogramHandler) Create(c fiber.Ctx) error {
	patientID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req odontogram.CreateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	snap, err := h.svc.Create(c.Context(), principal(c), patientID, req)
	if err != nil {
		return err
	}
	return created(c, snap)
}

// GET /api/v1/patients/:id/odontograms
func (h *OdontogramHandler) ListForPatient(c fiber.Ctx) error {
	patientID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	list, err := h.svc.ListForPatient(c.Context(), principal(c), patientID)
	if err != nil {
		return err
	}
	return ok(c, list)
}

// GET /api/v1/patients/:id/odontograms/latest
func (h *OdontogramHandler) Latest(c fiber.Ctx) error {
	patientID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	snap, err := h.svc.Latest(c.Context(), principal(c), patientID)
	if err != nil {
		return err
	}
	return ok(c, snap)
}

// GET /api/v1/odontograms/:id
func (h *OdontogramHandler) Get(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	snap, err := h.svc.Get(c.Context(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, snap)
}

// POST /api/v1/odontograms/:id/teeth
func (h *OdontogramHandler) AddTeeth(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req odontogram.AddTeethRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	teeth, err := h.svc.AddTeeth(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return created(c, teeth)
}

// PATCH /api/v1/odontograms/:id/teeth/:tooth_id
func (h *OdontogramHandler) CorrectTooth(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	toothID, err := paramID(c, "tooth_id")
	if err != nil {
		return err
	}
	var req odontogram.CorrectToothRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	t, err := h.svc.CorrectTooth(c.Context(), principal(c), id, toothID, req)
	if err != nil {
		return err
	}
	return ok(c, t)
}
