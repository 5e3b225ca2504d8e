package ad

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var (
	ErrAdNotFound   = apperr.NotFound("ad not found")
	ErrAdminOnly    = apperr.Forbidden("only admins can manage ads")
	ErrInvalidRange = apperr.Invalid("ends_at", "must be after starts_at")
	ErrNotImage     = apperr.Invalid("image", "must be an image")
	ErrFileTooLarge = apperr.Invalid("image", "is too large")
)
