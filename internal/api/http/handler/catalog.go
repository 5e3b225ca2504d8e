package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/service/catalog"
)

type CatalogHandler struct {
	svc catalog.Service
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ---------------------------------------------------------------------------
// Chairs
// ---------------------------------------------------------------------------

// POST /api/v1/chairs
func (h *CatalogHandler) CreateChair(c fiber.Ctx) error {
	var req catalog.CreateChairRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	ch, err := h.svc.CreateChair(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return created(c, ch)
}

// GET /api/v1/chairs
func (h *CatalogHandler) ListChairs(c fiber.Ctx) error {
	list, err := h.svc.ListChairs(c.Context())
	if err != nil {
		return err
	}
	return ok(c, list)
}

// GET /api/v1/chairs/:id
func (h *CatalogHandler) GetChair(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	ch, err := h.svc.GetChair(c.Context(), id)
	if err != nil {
		return err
	}
	return ok(c, ch)
}

// ---------------------------------------------------------------------------
// Treatments
// ---------------------------------------------------------------------------

// POST /api/v1/treatments
func (h *CatalogHandler) CreateTreatment(c fiber.Ctx) error {
	var req catalog.CreateTreatmentRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	t, err := h.svc.CreateTreatment(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return created(c, t)
}

// GET /api/v1/treatments?chair_id=
func (h *CatalogHandler) ListTreatments(c fiber.Ctx) error {
	chairID, err := queryID(c, "chair_id")
	if err != nil {
		return err
	}

	list, err := h.svc.ListTreatments(c.Context(), chairID)
	if err != nil {
		return err
	}
	return ok(c, list)
}

// GET /api/v1/treatments/:id
func (h *CatalogHandler) GetTreatment(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	t, err := h.svc.GetTreatment(c.Context(), id)
	if err != nil {
		return err
	}
	return ok(c, t)
}

// POST /api/v1/treatments/:id/subclasses
func (h *CatalogHandler) CreateSubclass(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req catalog.CreateSubclassRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	sc, err := h.svc.CreateSubclass(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return created(c, sc)
}

// POST /api/v1/treatments/:id/options
func (h *CatalogHandler) CreateOption(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req catalog.CreateOptionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	o, err := h.svc.CreateOption(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return created(c, o)
}
