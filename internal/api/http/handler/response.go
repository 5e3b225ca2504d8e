package handler

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/pkg/constants"
	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func paged(c fiber.Ctx, data any, total int, page repo.Page) error {
	return c.JSON(fiber.Map{
		"data": data,
		"meta": fiber.Map{
			"total":  total,
			"limit":  page.Limit,
			"offset": page.Offset,
		},
	})
}

// ErrorHandler renders every error returned by a handler or middleware.
// Errors of an apperr kind show only the kind's own message; anything else,
// including a failed audit append, becomes a generic 500 whose cause is only
// logged, unless exposeInternal is set.
func ErrorHandler(exposeInternal bool) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		status, body := render(err)
		if status >= fiber.StatusInternalServerError {
			slog.ErrorContext(c.Context(), "request failed",
				"method", c.Method(),
				"path", c.Path(),
				"request_id", reqctx.RequestIDFromContext(c.Context()),
				"elapsed", reqctx.Elapsed(c.Context()),
				"error", err,
			)
			if exposeInternal {
				body["detail"] = err.Error()
			}
		}
		return c.Status(status).JSON(body)
	}
}

// StatusOf returns the status ErrorHandler writes for err.
func StatusOf(err error) int {
	status, _ := render(err)
	return status
}

const internalMessage = "internal server error"

func render(err error) (int, fiber.Map) {
	// the audit kind wins over whatever kind its cause carries
	if errors.Is(err, apperr.ErrAuditWriteFailure) {
		return fiber.StatusInternalServerError, fiber.Map{"error": internalMessage}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fiber.Map{"error": fe.Message}
	}

	var status int
	switch {
	case errors.Is(err, apperr.ErrValidation):
		body := fiber.Map{"error": apperr.Message(err)}
		if fields := apperr.Fields(err); len(fields) > 0 {
			body["error"] = apperr.ErrValidation.Error()
			body["fields"] = fields
		}
		return fiber.StatusBadRequest, body
	case errors.Is(err, apperr.ErrUnauthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError, fiber.Map{"error": internalMessage}
	}
	return status, fiber.Map{"error": apperr.Message(err)}
}

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// principal returns the caller set by the auth middleware. Routes mounted
// without it see the zero principal, which every service rejects.
func principal(c fiber.Ctx) domain.Principal {
	p, _ := reqctx.PrincipalFromContext(c.Context())
	return p
}

func bindJSON(c fiber.Ctx, dst any) error {
	if err := c.Bind().JSON(dst); err != nil {
		return apperr.Invalid("body", "malformed JSON")
	}
	return nil
}

func paramID(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Invalid(name, "must be a UUID")
	}
	return id, nil
}

func queryID(c fiber.Ctx, name string) (*uuid.UUID, error) {
	s := c.Query(name)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, apperr.Invalid(name, "must be a UUID")
	}
	return &id, nil
}

type pageQuery struct {
	Page    int `query:"page"`
	PerPage int `query:"per_page"`
}

// pageFromQuery reads 1-based page and per_page parameters.
func pageFromQuery(c fiber.Ctx) repo.Page {
	var q pageQuery
	_ = c.Bind().Query(&q)

	if q.PerPage <= 0 {
		q.PerPage = constants.DefaultPageSize
	}
	if q.PerPage > constants.MaxPageSize {
		q.PerPage = constants.MaxPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return repo.Page{Limit: q.PerPage, Offset: (q.Page - 1) * q.PerPage}
}

// upload is one multipart file part opened for reading.
type upload struct {
	name        string
	contentType string
	size        int64
	body        io.ReadCloser
}

func formFile(c fiber.Ctx, field string) (*upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, apperr.Invalid(field, "is required")
	}
	if fh.Size > constants.MaxUploadBytes {
		return nil, apperr.Invalid(field, "exceeds the upload size limit")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	return &upload{
		name:        fh.Filename,
		contentType: fh.Header.Get(fiber.HeaderContentType),
		size:        fh.Size,
		body:        f,
	}, nil
}
