package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATS publishes events as core NATS messages.
type NATS struct {
	nc     *nats.Conn
	prefix string
	subs   []*nats.Subscription
}

var _ Bus = (*NATS)(nil)

func NewNATS(nc *nats.Conn, prefix string) *NATS {
	return &NATS{nc: nc, prefix: prefix}
}

func (b *NATS) Prefix() string { return b.prefix }

func (b *NATS) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", e.Type, err)
	}
	if err := b.nc.Publish(Subject(b.prefix, e), data); err != nil {
		return fmt.Errorf("events: publish %s: %w", e.Type, err)
	}
	return nil
}

// Subscribe joins the "workers" queue group so each event is handled by one
// instance when several run.
func (b *NATS) Subscribe(pattern string, h Handler) error {
	sub, err := b.nc.QueueSubscribe(pattern, "workers", func(msg *nats.Msg) {
		e, err := Decode(msg.Subject, msg.Data)
		if err != nil {
			slog.Warn("events: dropping malformed message", "subject", msg.Subject, "err", err)
			return
		}
		h(context.Background(), e)
	})
	if err != nil {
		return fmt.Errorf("events: subscribe %s: %w", pattern, err)
	}
	b.subs = append(b.subs, sub)
	return nil
}

func (b *NATS) Close() error {
	for _, s := range b.subs {
		_ = s.Unsubscribe()
	}
	return b.nc.Drain()
}
