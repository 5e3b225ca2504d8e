package notification

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var (
	ErrNotFound       = apperr.NotFound("notification not found")
	ErrDeviceNotFound = apperr.NotFound("device not registered")
	ErrAdminOnly      = apperr.Forbidden("only admins can broadcast")
)
