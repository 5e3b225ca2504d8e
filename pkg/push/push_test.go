package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/config"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.PushConfig{Endpoint: srv.URL, ServerKey: "secret", TimeoutSeconds: 2})
}

func TestSendReportsPerTokenResults(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fcm/send", r.URL.Path)
		assert.Equal(t, "key=secret", r.Header.Get("Authorization"))

		var req fcmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"tok-a", "tok-b"}, req.RegistrationIDs)
		assert.Equal(t, "Asignación completada", req.Notification.Title)
		assert.Equal(t, "123", req.Data["assignment_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":1,"failure":1,"results":[{"message_id":"m1"},{"error":"NotRegistered"}]}`))
	})

	res, err := c.Send(t.Context(), []string{"tok-a", "tok-b"}, Message{
		Title: "Asignación completada",
		Body:  "ok",
		Data:  map[string]string{"assignment_id": "123"},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.True(t, res[0].OK())
	assert.Equal(t, "m1", res[0].MessageID)
	assert.False(t, res[1].OK())
	assert.Equal(t, "NotRegistered", res[1].Err)
}

func TestSendTopic(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req fcmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/topics/alumnos", req.To)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message_id":42}`))
	})

	id, err := c.SendTopic(t.Context(), "alumnos", Message{Title: "Aviso"})
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"message_id":"m"}]}`))
	}))
	t.Cleanup(srv.Close)
	c := New(config.PushConfig{Endpoint: srv.URL, Retries: 2})

	res, err := c.Send(t.Context(), []string{"t"}, Message{Title: "x"})
	require.NoError(t, err)
	assert.True(t, res[0].OK())
	assert.EqualValues(t, 2, calls.Load())
}

func TestSendErrors(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Send(t.Context(), nil, Message{})
	assert.ErrorIs(t, err, ErrNoTargets)

	_, err = c.Send(t.Context(), []string{"t"}, Message{})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	res, err := Nop{}.Send(t.Context(), []string{"a", "b"}, Message{})
	require.NoError(t, err)
	assert.Len(t, res, 2)
}
