package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/service/notification"
)

type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// GET /api/v1/notifications?unread=true&page=&per_page=
func (h *NotificationHandler) List(c fiber.Ctx) error {
	page := pageFromQuery(c)
	unread := c.Query("unread") == "true"

	list, total, err := h.svc.List(c.Context(), principal(c), unread, page)
	if err != nil {
		return err
	}
	return paged(c, list, total, page)
}

// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.MarkRead(c.Context(), principal(c), id); err != nil {
		return err
	}
	return noContent(c)
}

// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	n, err := h.svc.MarkAllRead(c.Context(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"updated": n})
}

// POST /api/v1/notifications/devices
func (h *NotificationHandler) RegisterDevice(c fiber.Ctx) error {
	var req notification.RegisterDeviceRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	d, err := h.svc.RegisterDevice(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return created(c, d)
}

// DELETE /api/v1/notifications/devices/:token
func (h *NotificationHandler) RemoveDevice(c fiber.Ctx) error {
	if err := h.svc.RemoveDevice(c.Context(), principal(c), c.Params("token")); err != nil {
		return err
	}
	return noContent(c)
}

// POST /api/v1/notifications/broadcast
func (h *NotificationHandler) Broadcast(c fiber.Ctx) error {
	var req notification.BroadcastRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	msgID, err := h.svc.Broadcast(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"message_id": msgID})
}
