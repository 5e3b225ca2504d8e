package reqctx

import (
	"context"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
)

// WithPrincipal stores the authenticated principal in the context.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, keyPrincipal, p)
}

// PrincipalFromContext returns the principal set by the auth middleware.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(keyPrincipal).(domain.Principal)
	return p, ok
}
