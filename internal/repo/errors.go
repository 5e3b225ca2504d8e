package repo

import (
	"errors"
	"fmt"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
)

// NotFoundError returns when trying to fetch a specific entity and it was
// not found in the database.
type NotFoundError struct {
	label string
}

func (e *NotFoundError) Error() string {
	return "repo: " + e.label + " not found"
}

func (e *NotFoundError) Unwrap() error { return apperr.ErrNotFound }

func NewNotFoundError(label string) error {
	return &NotFoundError{label: label}
}

func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e)
}

type ConstraintKind int

const (
	ConstraintUnique ConstraintKind = iota + 1
	ConstraintForeignKey
	ConstraintCheck
)

// ConstraintError returns when a write violates a database constraint.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string
	wrap       error
}

func (e *ConstraintError) Error() string {
	if e.wrap == nil {
		return fmt.Sprintf("repo: constraint %q violated", e.Constraint)
	}
	return fmt.Sprintf("repo: constraint %q violated: %v", e.Constraint, e.wrap)
}

func (e *ConstraintError) Unwrap() error {
	switch e.Kind {
	case ConstraintUnique:
		return apperr.ErrConflict
	case ConstraintForeignKey:
		return apperr.ErrNotFound
	default:
		return apperr.ErrValidation
	}
}

func NewConstraintError(kind ConstraintKind, constraint string, cause error) error {
	return &ConstraintError{Kind: kind, Constraint: constraint, wrap: cause}
}

func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConstraintError
	return errors.As(err, &e)
}

// IsUniqueViolation reports a duplicate key, optionally on a named index.
func IsUniqueViolation(err error, constraint ...string) bool {
	var e *ConstraintError
	if !errors.As(err, &e) || e.Kind != ConstraintUnique {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if e.Constraint == c {
			return true
		}
	}
	return false
}
