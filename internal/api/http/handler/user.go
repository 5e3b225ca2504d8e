package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/service/user"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// POST /api/v1/users
func (h *UserHandler) Create(c fiber.Ctx) error {
	var req user.CreateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	u, err := h.svc.Create(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return created(c, u)
}

// GET /api/v1/users?role=&faculty_id=&page=&per_page=
func (h *UserHandler) List(c fiber.Ctx) error {
	req := user.ListRequest{Page: pageFromQuery(c)}

	if s := c.Query("role"); s != "" {
		r, err := domain.ParseRole(s)
		if err != nil {
			return apperr.Invalid("role", "is not a known role")
		}
		req.Role = &r
	}
	facultyID, err := queryID(c, "faculty_id")
	if err != nil {
		return err
	}
	req.FacultyID = facultyID

	users, total, err := h.svc.List(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return paged(c, users, total, req.Page)
}

// GET /api/v1/users/:id
func (h *UserHandler) Get(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	u, err := h.svc.GetByID(c.Context(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, u)
}

// PATCH /api/v1/users/:id
func (h *UserHandler) Update(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req user.UpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	u, err := h.svc.Update(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, u)
}

// POST /api/v1/users/:id/reset-password
func (h *UserHandler) ResetPassword(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	u, err := h.svc.ResetPassword(c.Context(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, u)
}
