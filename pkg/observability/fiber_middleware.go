package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

const (
	tracerName = "github.com/Alijeyrad/odonto_backend/pkg/observability"
)

// StatusFunc maps a handler error to the status the error handler will
// write. The app's error handler runs after every middleware has returned,
// so the response status is not yet set when a handler fails.
type StatusFunc func(err error) int

// FiberMiddleware opens a server span per request and records request count
// and latency by route and status.
func FiberMiddleware(statusOf StatusFunc) fiber.Handler {
	tracer := otel.Tracer(tracerName)
	meter := otel.Meter(tracerName)

	requestCounter, _ := meter.Int64Counter(
		"http_server_request_count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	requestDuration, _ := meter.Float64Histogram(
		"http_server_request_duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return func(c fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(
			c.Context(),
			propagation.HeaderCarrier(c.GetReqHeaders()),
		)

		// The route is only resolved once the request has been matched, so
		// the span is renamed after c.Next.
		ctx, span := tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.scheme", c.Protocol()),
				attribute.String("net.host.name", c.Hostname()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
				attribute.String("http.client_ip", c.IP()),
			),
		)
		defer span.End()

		c.SetContext(ctx)
		if span.SpanContext().HasTraceID() {
			c.Set("X-Trace-Id", span.SpanContext().TraceID().String())
		}

		start := time.Now()
		err := c.Next()
		duration := float64(time.Since(start).Microseconds()) / 1000

		statusCode := c.Response().StatusCode()
		if err != nil && statusOf != nil {
			statusCode = statusOf(err)
		}
		route := c.Route().Path
		span.SetName(c.Method() + " " + route)

		// Downstream middleware replaces the context, so read it back for
		// the request id and caller.
		reqCtx := c.Context()
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", statusCode),
			attribute.Float64("http.duration_ms", duration),
		)
		if rid := reqctx.RequestIDFromContext(reqCtx); rid != "" {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		if p, ok := reqctx.PrincipalFromContext(reqCtx); ok {
			span.SetAttributes(
				attribute.String("enduser.id", p.UserID.String()),
				attribute.String("enduser.role", string(p.Role)),
			)
		}

		attrs := metric.WithAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", statusCode),
		)
		requestCounter.Add(ctx, 1, attrs)
		requestDuration.Record(ctx, duration, attrs)

		if statusCode >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(statusCode))
			if err != nil {
				span.RecordError(err)
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
