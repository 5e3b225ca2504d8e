package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/service/audit"
)

type AuditHandler struct {
	svc audit.Service
}

func NewAuditHandler(svc audit.Service) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// GET /api/v1/audits?entity=&entity_id=&user_id=&page=&per_page=
func (h *AuditHandler) List(c fiber.Ctx) error {
	req := audit.ListRequest{Entity: c.Query("entity"), Page: pageFromQuery(c)}

	var err error
	if req.EntityID, err = queryID(c, "entity_id"); err != nil {
		return err
	}
	if req.UserID, err = queryID(c, "user_id"); err != nil {
		return err
	}

	list, total, err := h.svc.List(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return paged(c, list, total, req.Page)
}
