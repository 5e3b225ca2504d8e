package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Local dispatches events in process. It stands in for NATS when no
// server is configured. Handlers run on their own goroutine.
type Local struct {
	prefix string

	mu   sync.RWMutex
	subs []localSub
	wg   sync.WaitGroup
}

type localSub struct {
	pattern []string
	h       Handler
}

var _ Bus = (*Local)(nil)

func NewLocal(prefix string) *Local {
	return &Local{prefix: prefix}
}

func (b *Local) Prefix() string { return b.prefix }

func (b *Local) Publish(ctx context.Context, e Event) error {
	subject := Subject(b.prefix, e)
	// round-trip through JSON so handlers never share memory with the publisher
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", e.Type, err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !matchSubject(s.pattern, strings.Split(subject, ".")) {
			continue
		}
		ev, err := Decode(subject, data)
		if err != nil {
			return err
		}
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			h(context.WithoutCancel(ctx), ev)
		}(s.h)
	}
	return nil
}

func (b *Local) Subscribe(pattern string, h Handler) error {
	b.mu.Lock()
	b.subs = append(b.subs, localSub{pattern: strings.Split(pattern, "."), h: h})
	b.mu.Unlock()
	return nil
}

// Wait blocks until every dispatched handler returned.
func (b *Local) Wait() { b.wg.Wait() }

func (b *Local) Close() error {
	b.Wait()
	return nil
}

func matchSubject(pattern, subject []string) bool {
	for i, p := range pattern {
		if p == ">" {
			return len(subject) > i
		}
		if i >= len(subject) || (p != "*" && p != subject[i]) {
			return false
		}
	}
	return len(pattern) == len(subject)
}
