package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/service/faculty"
)

type FacultyHandler struct {
	svc faculty.Service
}

func NewFacultyHandler(svc faculty.Service) *FacultyHandler {
	return &FacultyHandler{svc: svc}
}

// POST /api/v1/faculties
func (h *FacultyHandler) Create(c fiber.Ctx) error {
	var req faculty.CreateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	f, err := h.svc.Create(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return created(c, f)
}

// GET /api/v1/faculties
func (h *FacultyHandler) List(c fiber.Ctx) error {
	list, err := h.svc.List(c.Context())
	if err != nil {
		return err
	}
	return ok(c, list)
}

// GET /api/v1/faculties/:id
func (h *FacultyHandler) Get(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	f, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return ok(c, f)
}
