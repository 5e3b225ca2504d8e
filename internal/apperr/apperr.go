// Package apperr defines the error kinds shared by every service. Services
// wrap one of the kind sentinels with their own message; handlers translate
// the kind into a response status.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrAuditWriteFailure = errors.New("audit write failed")
)

// kindError carries a human message while matching its kind with errors.Is.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newKind(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error  { return newKind(ErrConflict, format, args...) }
func NotFound(format string, args ...any) error  { return newKind(ErrNotFound, format, args...) }
func Forbidden(format string, args ...any) error { return newKind(ErrForbidden, format, args...) }

func Unauthenticated(format string, args ...any) error {
	return newKind(ErrUnauthenticated, format, args...)
}

// ValidationError lists the offending fields and why each was rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for a single field.
func Invalid(field, reason string) error {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// Fields returns the field map of a ValidationError in err's chain.
func Fields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// Message returns the text a client may see for err: the message given to
// the kind constructor, or the bare kind when err carries none. Wrapping
// context and causes stay out of it.
func Message(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	for _, kind := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrForbidden, ErrUnauthenticated, ErrAuditWriteFailure} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ""
}

// AuditFailure wraps the cause of a failed audit append.
func AuditFailure(cause error) error {
	return fmt.Errorf("%w: %w", ErrAuditWriteFailure, cause)
}
