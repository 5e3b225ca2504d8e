package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/service/ad"
)

type AdHandler struct {
	svc ad.Service
}

func NewAdHandler(svc ad.Service) *AdHandler {
	return &AdHandler{svc: svc}
}

func formTime(c fiber.Ctx, field string) (*time.Time, error) {
	s := c.FormValue(field)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apperr.Invalid(field, "must be an RFC 3339 timestamp")
	}
	return &t, nil
}

// POST /api/v1/ads (multipart: title, body, starts_at, ends_at, image)
func (h *AdHandler) Create(c fiber.Ctx) error {
	req := ad.CreateRequest{
		Title: c.FormValue("title"),
		Body:  c.FormValue("body"),
	}

	var err error
	if req.StartsAt, err = formTime(c, "starts_at"); err != nil {
		return err
	}
	if req.EndsAt, err = formTime(c, "ends_at"); err != nil {
		return err
	}

	if _, ferr := c.FormFile("image"); ferr == nil {
		f, err := formFile(c, "image")
		if err != nil {
			return err
		}
		defer f.body.Close()
		req.Image = &ad.Image{
			FileName:    f.name,
			ContentType: f.contentType,
			Size:        f.size,
			Body:        f.body,
		}
	}

	a, err := h.svc.Create(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return created(c, a)
}

// GET /api/v1/ads
func (h *AdHandler) ListActive(c fiber.Ctx) error {
	list, err := h.svc.ListActive(c.Context())
	if err != nil {
		return err
	}
	return ok(c, list)
}

// DELETE /api/v1/ads/:id
func (h *AdHandler) Delete(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), principal(c), id); err != nil {
		return err
	}
	return noContent(c)
}
