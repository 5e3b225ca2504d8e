package auth

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var (
	ErrInvalidCredentials = apperr.Unauthenticated("email or password is incorrect")
	ErrAccountLocked      = apperr.Forbidden("account temporarily locked due to repeated login failures")
	ErrAccountInactive    = apperr.Forbidden("account is disabled")
	ErrSessionNotFound    = apperr.Unauthenticated("session not found or expired")
	ErrInvalidToken       = apperr.Unauthenticated("invalid or expired token")
	ErrWrongPassword      = apperr.Invalid("current_password", "is incorrect")
)
