// Package reqctx carries request-scoped values through context.Context.
//
// The HTTP middleware sets the request metadata for every request and the
// authenticated principal once the access token resolves to a live session.
// Services read both from the context they are called with; the audit
// recorder stamps each row with the request id.
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: rid})
//	ctx = reqctx.WithPrincipal(ctx, principal)
//
//	rid := reqctx.RequestIDFromContext(ctx)
//	p, ok := reqctx.PrincipalFromContext(ctx)
//
// All context keys are unexported so other packages cannot collide with them.
package reqctx
