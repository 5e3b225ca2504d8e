package events

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	id := uuid.New()
	e := Event{Type: AssignmentCompleted, EntityID: id}
	assert.Equal(t, "odonto.assignment.completed."+id.String(), Subject("odonto", e))
	assert.Equal(t, "odonto.procedure.overridden.*", Wildcard("odonto", ProcedureOverridden))
}

func TestDecodeChecksSubject(t *testing.T) {
	id := uuid.New()
	data := []byte(`{"type":"assignment.created","entity_id":"` + id.String() + `"}`)

	e, err := Decode("odonto.assignment.created."+id.String(), data)
	require.NoError(t, err)
	assert.Equal(t, AssignmentCreated, e.Type)

	_, err = Decode("odonto.assignment.created."+uuid.NewString(), data)
	assert.Error(t, err)

	_, err = Decode("x", []byte("{"))
	assert.Error(t, err)
}

func TestMatchSubject(t *testing.T) {
	tests := []struct {
		pattern, subject string
		want             bool
	}{
		{"odonto.assignment.created.*", "odonto.assignment.created.1", true},
		{"odonto.assignment.*.*", "odonto.assignment.abandoned.1", true},
		{"odonto.>", "odonto.procedure.overridden.1", true},
		{"odonto.>", "odonto", false},
		{"odonto.assignment.created.*", "odonto.assignment.completed.1", false},
		{"odonto.assignment.created.*", "odonto.assignment.created", false},
		{"odonto.assignment.created", "odonto.assignment.created.1", false},
	}
	for _, tt := range tests {
		got := matchSubject(strings.Split(tt.pattern, "."), strings.Split(tt.subject, "."))
		assert.Equal(t, tt.want, got, "%s ~ %s", tt.pattern, tt.subject)
	}
}

func TestLocalBusDelivers(t *testing.T) {
	bus := NewLocal("odonto")

	var (
		mu  sync.Mutex
		got []Type
	)
	record := func(_ context.Context, e Event) {
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
	}
	require.NoError(t, bus.Subscribe(Wildcard("odonto", AssignmentCompleted), record))
	require.NoError(t, bus.Subscribe("odonto.procedure.>", record))

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, Event{Type: AssignmentCompleted, EntityID: uuid.New()}))
	require.NoError(t, bus.Publish(ctx, Event{Type: AssignmentCreated, EntityID: uuid.New()}))
	require.NoError(t, bus.Publish(ctx, Event{Type: ProcedureOverridden, EntityID: uuid.New()}))
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []Type{AssignmentCompleted, ProcedureOverridden}, got)
}
