package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/service/assignment"
)

type AssignmentHandler struct {
	svc assignment.Service
}

func NewAssignmentHandler(svc assignment.Service) *AssignmentHandler {
	return &AssignmentHandler{svc: svc}
}

func statusQuery(c fiber.Ctx) (*domain.AssignmentStatus, error) {
	s := c.Query("status")
	if s == "" {
		return nil, nil
	}
	st, err := domain.ParseAssignmentStatus(s)
	if err != nil {
		return nil, apperr.Invalid("status", "is not a known assignment status")
	}
	return &st, nil
}

// POST /api/v1/procedures/:id/claim
func (h *AssignmentHandler) Claim(c fiber.Ctx) error {
	procedureID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	a, err := h.svc.Create(c.Context(), principal(c), procedureID)
	if err != nil {
		return err
	}
	return created(c, a)
}

// GET /api/v1/assignments/mine?status=&page=&per_page=
func (h *AssignmentHandler) ListMine(c fiber.Ctx) error {
	status, err := statusQuery(c)
	if err != nil {
		return err
	}
	page := pageFromQuery(c)

	list, total, err := h.svc.ListMine(c.Context(), principal(c), status, page)
	if err != nil {
		return err
	}
	return paged(c, list, total, page)
}

// GET /api/v1/assignments?student_id=&procedure_id=&status=&page=&per_page=
func (h *AssignmentHandler) List(c fiber.Ctx) error {
	req := assignment.ListRequest{Page: pageFromQuery(c)}

	var err error
	if req.StudentID, err = queryID(c, "student_id"); err != nil {
		return err
	}
	if req.ProcedureID, err = queryID(c, "procedure_id"); err != nil {
		return err
	}
	if req.Status, err = statusQuery(c); err != nil {
		return err
	}

	list, total, err := h.svc.List(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return paged(c, list, total, req.Page)
}

// GET /api/v1/assignments/:id
func (h *AssignmentHandler) Get(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	d, err := h.svc.Get(c.Context(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, d)
}

// POST /api/v1/assignments/:id/complete
func (h *AssignmentHandler) Complete(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req assignment.CompleteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	a, err := h.svc.Complete(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, a)
}

// POST /api/v1/assignments/:id/abandon
func (h *AssignmentHandler) Abandon(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req assignment.AbandonRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	a, err := h.svc.Abandon(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, a)
}

// PATCH /api/v1/assignments/:id/notes
func (h *AssignmentHandler) AmendNotes(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req assignment.NotesRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	a, err := h.svc.AmendNotes(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, a)
}

// POST /api/v1/assignments/:id/sessions
func (h *AssignmentHandler) RecordSession(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req assignment.SessionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	s, err := h.svc.RecordSession(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return created(c, s)
}

// GET /api/v1/assignments/:id/sessions
func (h *AssignmentHandler) ListSessions(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	list, err := h.svc.ListSessions(c.Context(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, list)
}
