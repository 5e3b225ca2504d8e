package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/service/patient"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

// POST /api/v1/patients
func (h *PatientHandler) Create(c fiber.Ctx) error {
	var req patient.CreateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	p, err := h.svc.Create(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return created(c, p)
}

// GET /api/v1/patients?q=&page=&per_page=
func (h *PatientHandler) List(c fiber.Ctx) error {
	req := patient.ListRequest{Search: c.Query("q"), Page: pageFromQuery(c)}

	list, total, err := h.svc.List(c.Context(), principal(c), req)
	if err != nil {
		return err
	}
	return paged(c, list, total, req.Page)
}

// GET /api/v1/patients/:id
func (h *PatientHandler) Get(c fiber.Ctx) error {
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

// PATCH /api/v1/patients/:id
func (h *PatientHandler) Update(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req patient.UpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	p, err := h.svc.Update(c.Context(), principal(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, p)
}

// DELETE /api/v1/patients/:id
func (h *PatientHandler) Delete(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), principal(c), id); err != nil {
		return err
	}
	return noContent(c)
}

// PUT /api/v1/patients/:id/consent (multipart, field "file")
func (h *PatientHandler) UploadConsent(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	f, err := formFile(c, "file")
	if err != nil {
		return err
	}
	defer f.body.Close()

	p, err := h.svc.UploadConsent(c.Context(), principal(c), id, patient.UploadRequest{
		FileName:    f.name,
		ContentType: f.contentType,
		Size:        f.size,
		Body:        f.body,
	})
	if err != nil {
		return err
	}
	return ok(c, p)
}

// GET /api/v1/patients/:id/consent
func (h *PatientHandler) ConsentURL(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	url, err := h.svc.ConsentURL(c.Context(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"url": url})
}
