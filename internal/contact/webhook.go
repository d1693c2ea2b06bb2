package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"suitcraft.com/web/internal/observability"
)

const (
	defaultWebhookTimeout = 5 * time.Second
	idempotencyHeader     = "Idempotency-Key"
)

// ErrMissingWebhookURL is returned when a webhook sink has no endpoint.
var ErrMissingWebhookURL = errors.New("contact: missing webhook url")

// StatusError reports a non-2xx webhook response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("contact: webhook status %d", e.Code)
	}
	return fmt.Sprintf("contact: webhook status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the upstream may accept the same request later.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout
}

// WebhookSink posts messages as JSON to an HTTP endpoint.
type WebhookSink struct {
	url         string
	http        *http.Client
	maxAttempts int
	initial     time.Duration
	maxInterval time.Duration
}

// WebhookOption customises a WebhookSink.
type WebhookOption func(*WebhookSink)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(s *WebhookSink) {
		if c != nil {
			s.http = c
		}
	}
}

// WithMaxAttempts bounds how many times one message is posted.
func WithMaxAttempts(n int) WebhookOption {
	return func(s *WebhookSink) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryInterval sets the initial and maximum wait between attempts.
func WithRetryInterval(initial, max time.Duration) WebhookOption {
	return func(s *WebhookSink) {
		if initial > 0 {
			s.initial = initial
		}
		if max > 0 {
			s.maxInterval = max
		}
	}
}

// NewWebhookSink constructs a sink posting to endpoint with a per-attempt timeout.
func NewWebhookSink(endpoint string, timeout time.Duration, opts ...WebhookOption) (*WebhookSink, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrMissingWebhookURL
	}
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	s := &WebhookSink{
		url:         endpoint,
		http:        &http.Client{Timeout: timeout},
		maxAttempts: 3,
		initial:     250 * time.Millisecond,
		maxInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name implements Named.
func (s *WebhookSink) Name() string { return "webhook" }

// Deliver implements Deliverer. Network failures and 5xx/429 responses are
// retried with exponential backoff; other 4xx responses fail immediately.
// Every attempt carries the message ID as the idempotency key.
func (s *WebhookSink) Deliver(ctx context.Context, msg Message) (Receipt, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return Receipt{}, fmt.Errorf("contact: encode message: %w", err)
	}

	logger := observability.FromContext(ctx)
	attempt := 0
	op := func() error {
		attempt++
		err := s.post(ctx, msg.ID, payload)
		var status *StatusError
		if errors.As(err, &status) && !status.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("contact webhook attempt failed",
			zap.String("messageId", msg.ID),
			zap.Int("attempt", attempt),
			zap.Duration("retryIn", wait),
			zap.Error(err),
		)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initial
	b.MaxInterval = s.maxInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxAttempts-1)), ctx)

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return Receipt{}, fmt.Errorf("contact: webhook after %d attempt(s): %w", attempt, err)
	}
	return Receipt{ID: msg.ID, Sink: s.Name(), DeliveredAt: time.Now().UTC()}, nil
}

func (s *WebhookSink) post(ctx context.Context, key string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(idempotencyHeader, key)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: drainError(resp.Body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func drainError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
