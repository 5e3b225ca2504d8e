// Package events carries domain events from the services to the background
// workers. Events are published after the transaction that produced them
// commits; a failed publish is logged and never undoes the operation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	AssignmentCreated   Type = "assignment.created"
	AssignmentCompleted Type = "assignment.completed"
	AssignmentAbandoned Type = "assignment.abandoned"
	ProcedureOverridden Type = "procedure.overridden"
)

// Event is the JSON payload of every subject.
type Event struct {
	Type        Type       `json:"type"`
	EntityID    uuid.UUID  `json:"entity_id"`
	ActorID     uuid.UUID  `json:"actor_id"`
	StudentID   *uuid.UUID `json:"student_id,omitempty"`
	ProcedureID uuid.UUID  `json:"procedure_id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	FacultyID   *uuid.UUID `json:"faculty_id,omitempty"`
	Status      string     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// Subject is "<prefix>.<type>.<entity id>".
func Subject(prefix string, e Event) string {
	return prefix + "." + string(e.Type) + "." + e.EntityID.String()
}

// Wildcard matches every event of a type.
func Wildcard(prefix string, t Type) string {
	return prefix + "." + string(t) + ".*"
}

// Decode parses a payload and checks it against its subject.
func Decode(subject string, data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("events: decode %s: %w", subject, err)
	}
	if !strings.HasSuffix(subject, "."+e.EntityID.String()) {
		return Event{}, fmt.Errorf("events: subject %s does not match entity %s", subject, e.EntityID)
	}
	return e, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Handler func(ctx context.Context, e Event)

type Subscriber interface {
	// Subscribe delivers every event whose subject matches pattern. NATS
	// wildcards "*" and ">" are supported.
	Subscribe(pattern string, h Handler) error
}

// Bus is both ends of the event stream.
type Bus interface {
	Publisher
	Subscriber
	Prefix() string
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Emit publishes e and logs a failure instead of returning it. Callers use
// it once their transaction has committed.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.Warn("failed to publish event", "type", e.Type, "entity_id", e.EntityID, "error", err)
	}
}
