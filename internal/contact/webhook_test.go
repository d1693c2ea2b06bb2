package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookRecorder struct {
	mu       sync.Mutex
	keys     []string
	bodies   []Message
	statuses []int
}

func (h *hookRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var msg Message
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		h.keys = append(h.keys, r.Header.Get(idempotencyHeader))
		h.bodies = append(h.bodies, msg)

		status := http.StatusAccepted
		if n := len(h.keys) - 1; n < len(h.statuses) {
			status = h.statuses[n]
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}

func (h *hookRecorder) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.keys)
}

func newTestHook(t *testing.T, rec *hookRecorder, attempts int) *WebhookSink {
	t.Helper()
	srv := httptest.NewServer(rec.handler(t))
	t.Cleanup(srv.Close)
	sink, err := NewWebhookSink(srv.URL, time.Second,
		WithMaxAttempts(attempts),
		WithRetryInterval(time.Millisecond, 5*time.Millisecond),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return sink
}

func testMessage() Message {
	return Message{ID: "01HZX", Name: "Jo", Email: "jo@example.com", Body: "navy suit please", SubmittedAt: time.Unix(1700000000, 0).UTC()}
}

func TestWebhookDelivers(t *testing.T) {
	rec := &hookRecorder{}
	sink := newTestHook(t, rec, 3)

	receipt, err := sink.Deliver(context.Background(), testMessage())
	require.NoError(t, err)
	require.Equal(t, "webhook", receipt.Sink)
	require.Equal(t, "01HZX", receipt.ID)
	require.Equal(t, []string{"01HZX"}, rec.keys)
	require.Equal(t, "navy suit please", rec.bodies[0].Body)
}

func TestWebhookRetriesServerErrors(t *testing.T) {
	rec := &hookRecorder{statuses: []int{http.StatusBadGateway, http.StatusTooManyRequests}}
	sink := newTestHook(t, rec, 3)

	_, err := sink.Deliver(context.Background(), testMessage())
	require.NoError(t, err)
	require.Equal(t, 3, rec.calls())
	require.Equal(t, []string{"01HZX", "01HZX", "01HZX"}, rec.keys, "every attempt reuses the idempotency key")
}

func TestWebhookStopsAfterMaxAttempts(t *testing.T) {
	rec := &hookRecorder{statuses: []int{500, 500, 500, 500}}
	sink := newTestHook(t, rec, 2)

	_, err := sink.Deliver(context.Background(), testMessage())
	var status *StatusError
	require.ErrorAs(t, err, &status)
	require.Equal(t, 500, status.Code)
	require.Equal(t, 2, rec.calls())
}

func TestWebhookClientErrorsArePermanent(t *testing.T) {
	rec := &hookRecorder{statuses: []int{http.StatusUnprocessableEntity}}
	sink := newTestHook(t, rec, 5)

	_, err := sink.Deliver(context.Background(), testMessage())
	var status *StatusError
	require.ErrorAs(t, err, &status)
	require.Equal(t, http.StatusUnprocessableEntity, status.Code)
	require.False(t, status.Retryable())
	require.Equal(t, 1, rec.calls())
}

func TestWebhookHonoursContextCancellation(t *testing.T) {
	rec := &hookRecorder{statuses: []int{503, 503, 503, 503, 503}}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()
	sink, err := NewWebhookSink(srv.URL, time.Second, WithMaxAttempts(5), WithRetryInterval(time.Second, time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = sink.Deliver(ctx, testMessage())
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	require.Equal(t, 1, rec.calls())
}

func TestWebhookRequiresURL(t *testing.T) {
	_, err := NewWebhookSink("  ", 0)
	require.ErrorIs(t, err, ErrMissingWebhookURL)
}
