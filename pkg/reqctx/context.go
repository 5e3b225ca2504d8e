package reqctx

import (
	"context"
	"time"
)

type ctxKey int

const (
	keyRequestMeta ctxKey = iota
	keyPrincipal
)

// RequestMeta describes the HTTP request a context belongs to. It is set
// once by the request id middleware and never mutated afterwards.
type RequestMeta struct {
	RequestID   string
	ClientIP    string
	UserAgent   string
	RequestedAt time.Time
}

func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, keyRequestMeta, meta)
}

// RequestMetaFromContext reports false outside an HTTP request, for example
// in workers and CLI commands.
func RequestMetaFromContext(ctx context.Context) (*RequestMeta, bool) {
	meta, ok := ctx.Value(keyRequestMeta).(*RequestMeta)
	return meta, ok && meta != nil
}

// RequestIDFromContext returns "" outside an HTTP request.
func RequestIDFromContext(ctx context.Context) string {
	if meta, ok := RequestMetaFromContext(ctx); ok {
		return meta.RequestID
	}
	return ""
}

// Elapsed is the time since the request was received, or zero outside one.
func Elapsed(ctx context.Context) time.Duration {
	if meta, ok := RequestMetaFromContext(ctx); ok && !meta.RequestedAt.IsZero() {
		return time.Since(meta.RequestedAt)
	}
	return 0
}
