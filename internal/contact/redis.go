package contact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultStreamMaxLen trims old entries approximately.
const defaultStreamMaxLen = 10000

// Stream appends messages to a Redis stream for downstream consumers.
type Stream struct {
	client redis.UniversalClient
	stream string
}

// NewStream wraps an existing client.
func NewStream(client redis.UniversalClient, stream string) *Stream {
	stream = strings.TrimSpace(stream)
	if stream == "" {
		stream = "suitcraft:contact"
	}
	return &Stream{client: client, stream: stream}
}

// Name implements Named.
func (s *Stream) Name() string { return "redis" }

// Deliver implements Deliverer with XADD. The receipt ID is the message ID;
// the stream entry ID is assigned by Redis.
func (s *Stream) Deliver(ctx context.Context, msg Message) (Receipt, error) {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: defaultStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"id":           msg.ID,
			"name":         msg.Name,
			"email":        msg.Email,
			"message":      msg.Body,
			"remote_ip":    msg.RemoteIP,
			"user_agent":   msg.UserAgent,
			"submitted_at": msg.SubmittedAt.Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return Receipt{}, fmt.Errorf("contact: xadd %s: %w", s.stream, err)
	}
	return Receipt{ID: msg.ID, Sink: s.Name(), DeliveredAt: time.Now().UTC()}, nil
}
