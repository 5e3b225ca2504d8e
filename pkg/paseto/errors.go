package pasetotoken

import (
	"errors"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
)

// ErrConfig reports an unusable authentication.paseto setting. Key is the
// setting name below that section.
type ErrConfig struct {
	Key string
	Msg string
}

func (e ErrConfig) Error() string {
	if e.Key == "" {
		return "paseto: " + e.Msg
	}
	return "paseto: authentication.paseto." + e.Key + ": " + e.Msg
}

// ErrInvalidToken wraps a parse or claim failure. It matches
// apperr.ErrUnauthenticated so callers may return it unchanged.
type ErrInvalidToken struct{ Err error }

func (e ErrInvalidToken) Error() string { return "invalid token: " + e.Err.Error() }
func (e ErrInvalidToken) Unwrap() error { return e.Err }

func (e ErrInvalidToken) Is(target error) bool {
	return target == apperr.ErrUnauthenticated
}

func invalid(err error) error {
	if err == nil {
		err = errors.New("malformed claims")
	}
	return ErrInvalidToken{Err: err}
}
