package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"suitcraft.com/web/internal/config"
)

// Sink is a configured deliverer together with its cleanup.
type Sink struct {
	Deliverer
	closeFn func() error
}

// Close releases connections held by the sink.
func (s *Sink) Close() error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// ErrNoRedisClient is returned when the redis sink is selected without a client.
var ErrNoRedisClient = errors.New("contact: redis sink requires a redis client")

// Open builds the sink selected by cfg.Sink. rdb is the shared Redis client and
// may be nil unless the redis sink is selected.
func Open(ctx context.Context, cfg config.ContactConfig, rdb redis.UniversalClient, logger *zap.Logger) (*Sink, error) {
	switch cfg.Sink {
	case "", config.SinkLog:
		return &Sink{Deliverer: NewLogSink(logger)}, nil
	case config.SinkWebhook:
		hook, err := NewWebhookSink(cfg.WebhookURL, cfg.Timeout, WithMaxAttempts(cfg.MaxAttempts))
		if err != nil {
			return nil, err
		}
		return &Sink{Deliverer: hook}, nil
	case config.SinkPostgres:
		inbox, err := OpenInbox(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := inbox.EnsureSchema(ctx); err != nil {
			_ = inbox.Close()
			return nil, err
		}
		return &Sink{Deliverer: inbox, closeFn: inbox.Close}, nil
	case config.SinkRedis:
		if rdb == nil {
			return nil, ErrNoRedisClient
		}
		return &Sink{Deliverer: NewStream(rdb, cfg.RedisStream)}, nil
	default:
		return nil, fmt.Errorf("contact: unknown sink %q", cfg.Sink)
	}
}

// Name reports the underlying sink name.
func (s *Sink) Name() string {
	return sinkName(s.Deliverer)
}
