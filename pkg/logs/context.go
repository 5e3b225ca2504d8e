package logs

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

// contextHandler adds the request id, the caller and the active trace to
// records logged with a context.
type contextHandler struct {
	next slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if rid := reqctx.RequestIDFromContext(ctx); rid != "" {
			r.AddAttrs(slog.String("request_id", rid))
		}
		if p, ok := reqctx.PrincipalFromContext(ctx); ok {
			r.AddAttrs(slog.String("user_id", p.UserID.String()))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			r.AddAttrs(
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
			)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}
