package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseLevel(in))
		})
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	var debugBuf, errorBuf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	logger := slog.New(h).With(slog.String("service", "test"))
	logger.Info("assignment claimed", "assignment_id", "a1")

	require.Contains(t, debugBuf.String(), "assignment claimed")
	assert.Contains(t, debugBuf.String(), `"service":"test"`)
	assert.Empty(t, errorBuf.String())

	logger.Error("audit write failed")
	assert.Contains(t, errorBuf.String(), "audit write failed")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestContextHandlerAddsRequestAndTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&contextHandler{next: slog.NewJSONHandler(&buf, nil)})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: "req-7"})

	logger.InfoContext(ctx, "procedure overridden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-7", rec["request_id"])
	assert.Equal(t, traceID.String(), rec["trace_id"])
	assert.Equal(t, spanID.String(), rec["span_id"])

	buf.Reset()
	logger.Info("no context")
	assert.NotContains(t, buf.String(), "request_id")
}
