package observability

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var errBroken = errors.New("broken")

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func attr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestFiberMiddlewareUsesStatusOfFailedHandler(t *testing.T) {
	rec := recordSpans(t)

	app := fiber.New()
	app.Use(FiberMiddleware(func(err error) int {
		if errors.Is(err, errBroken) {
			return fiber.StatusServiceUnavailable
		}
		return fiber.StatusInternalServerError
	}))
	app.Get("/patients/:id", func(c fiber.Ctx) error { return errBroken })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/patients/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /patients/:id", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	status, ok := attr(spans[0], "http.status_code")
	require.True(t, ok)
	assert.EqualValues(t, fiber.StatusServiceUnavailable, status.AsInt64())
	route, _ := attr(spans[0], "http.route")
	assert.Equal(t, "/patients/:id", route.AsString())
}

func TestFiberMiddlewareOkSpan(t *testing.T) {
	rec := recordSpans(t)

	app := fiber.New()
	app.Use(FiberMiddleware(nil))
	app.Get("/healthz", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-Id"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestShutdownNilProvider(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(t.Context()))
}
