package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/service/photo"
)

type PhotoHandler struct {
	svc photo.Service
}

func NewPhotoHandler(svc photo.Service) *PhotoHandler {
	return &PhotoHandler{svc: svc}
}

func photoUpload(c fiber.Ctx) (photo.UploadRequest, func() error, error) {
	f, err := formFile(c, "file")
	if err != nil {
		return photo.UploadRequest{}, nil, err
	}
	return photo.UploadRequest{
		FileName:    f.name,
		ContentType: f.contentType,
		Size:        f.size,
		Caption:     c.FormValue("caption"),
		Body:        f.body,
	}, f.body.Close, nil
}

// POST /api/v1/assignments/:id/photos (multipart: file, caption)
func (h *PhotoHandler) UploadForAssignment(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	req, closeFn, err := photoUpload(c)
	if err != nil {
		return err
	}
	defer closeFn()

	ph, err := h.svc.UploadAssignmentPhoto(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return created(c, ph)
}

// POST /api/v1/procedures/:id/photos (multipart: file, caption)
func (h *PhotoHandler) UploadForProcedure(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	req, closeFn, err := photoUpload(c)
	if err != nil {
		return err
	}
	defer closeFn()

	ph, err := h.svc.UploadProcedurePhoto(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return created(c, ph)
}

// GET /api/v1/assignments/:id/photos
func (h *PhotoHandler) ListForAssignment(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	list, err := h.svc.ListPhotos(c.Context(), principal(c), photo.ListRequest{AssignmentID: &id})
	if err != nil {
		return err
	}
	return ok(c, list)
}

// GET /api/v1/procedures/:id/photos
func (h *PhotoHandler) ListForProcedure(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	list, err := h.svc.ListPhotos(c.Context(), principal(c), photo.ListRequest{ProcedureID: &id})
	if err != nil {
		return err
	}
	return ok(c, list)
}

// GET /api/v1/photos/:id/url
func (h *PhotoHandler) URL(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	url, err := h.svc.PhotoURL(c.Context(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"url": url})
}
