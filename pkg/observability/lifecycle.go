package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Lifecycle counts status transitions of clinical records. It uses the
// global meter provider, which is a no-op until InitTelemetry runs.
type Lifecycle struct {
	transitions metric.Int64Counter
	conflicts   metric.Int64Counter
}

func NewLifecycle() *Lifecycle {
	meter := otel.Meter(tracerName)
	transitions, _ := meter.Int64Counter(
		"odonto_status_transitions_total",
		metric.WithDescription("Status transitions of procedures and assignments"),
		metric.WithUnit("{transition}"),
	)
	conflicts, _ := meter.Int64Counter(
		"odonto_claim_conflicts_total",
		metric.WithDescription("Claims rejected because another assignment won"),
		metric.WithUnit("{claim}"),
	)
	return &Lifecycle{transitions: transitions, conflicts: conflicts}
}

// Transition records entity moving from one status to another.
func (l *Lifecycle) Transition(ctx context.Context, entity, from, to string) {
	if l == nil {
		return
	}
	l.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// ClaimConflict records a lost claim race.
func (l *Lifecycle) ClaimConflict(ctx context.Context) {
	if l == nil {
		return
	}
	l.conflicts.Add(ctx, 1)
}
