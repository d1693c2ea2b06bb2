package contact

import (
	"context"
	"time"

	"go.uber.org/zap"

	"suitcraft.com/web/internal/observability"
)

// LogSink writes messages to the structured log. It never fails and is the
// default when no external sink is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink that logs through logger, or the request logger
// when logger is nil.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Name implements Named.
func (s *LogSink) Name() string { return "log" }

// Deliver implements Deliverer.
func (s *LogSink) Deliver(ctx context.Context, msg Message) (Receipt, error) {
	logger := s.logger
	if logger == nil {
		logger = observability.FromContext(ctx)
	}
	logger.Info("contact message received",
		zap.String("messageId", msg.ID),
		zap.String("name", msg.Name),
		zap.String("email", msg.Email),
		zap.Int("length", len(msg.Body)),
		zap.Time("submittedAt", msg.SubmittedAt),
	)
	return Receipt{ID: msg.ID, Sink: s.Name(), DeliveredAt: time.Now().UTC()}, nil
}
