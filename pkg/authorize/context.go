package authorize

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

var (
	ErrNoSubjectInContext = errors.New("no subject found in context")
)

// SubjectFromContext returns the authenticated principal as a policy subject.
func SubjectFromContext(ctx context.Context) (GroupSubject, error) {
	id, err := UserIDFromContext(ctx)
	if err != nil {
		return "", err
	}
	return GroupSubject(id.String()), nil
}

// MustSubjectFromContext extracts the GroupSubject from context or panics.
// Use only behind the auth middleware.
func MustSubjectFromContext(ctx context.Context) GroupSubject {
	subject, err := SubjectFromContext(ctx)
	if err != nil {
		panic(err)
	}
	return subject
}

// UserIDFromContext returns the principal's user id.
func UserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	p, ok := reqctx.PrincipalFromContext(ctx)
	if !ok || p.UserID == uuid.Nil {
		return uuid.Nil, ErrNoSubjectInContext
	}
	return p.UserID, nil
}

// DomainFromContext returns the private domain of the user in context.
func DomainFromContext(ctx context.Context) (Domain, error) {
	subject, err := SubjectFromContext(ctx)
	if err != nil {
		return "", err
	}
	return UserDomain(string(subject)), nil
}
