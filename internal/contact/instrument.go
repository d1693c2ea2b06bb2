package contact

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"suitcraft.com/web/internal/observability"
)

const tracerName = "suitcraft.com/web/internal/contact"

// Instrumented wraps a Deliverer with a span, metrics and an outcome log line.
type Instrumented struct {
	next    Deliverer
	sink    string
	metrics *observability.Metrics
}

// Instrument decorates next. metrics may be nil.
func Instrument(next Deliverer, metrics *observability.Metrics) *Instrumented {
	return &Instrumented{next: next, sink: sinkName(next), metrics: metrics}
}

// Name implements Named.
func (i *Instrumented) Name() string { return i.sink }

// Deliver implements Deliverer.
func (i *Instrumented) Deliver(ctx context.Context, msg Message) (Receipt, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "contact.deliver", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("contact.sink", i.sink),
		attribute.String("contact.message_id", msg.ID),
	)

	start := time.Now()
	receipt, err := i.next.Deliver(ctx, msg)
	elapsed := time.Since(start)
	i.metrics.ObserveDelivery(i.sink, err == nil, elapsed)

	logger := observability.FromContext(ctx)
	if sc := span.SpanContext(); sc.HasTraceID() {
		logger = logger.With(zap.String("trace_id", sc.TraceID().String()))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		logger.Error("contact delivery failed",
			zap.String("sink", i.sink),
			zap.String("messageId", msg.ID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return Receipt{}, err
	}
	span.SetStatus(codes.Ok, "")
	logger.Info("contact delivered",
		zap.String("sink", i.sink),
		zap.String("messageId", receipt.ID),
		zap.Duration("elapsed", elapsed),
	)
	return receipt, nil
}
