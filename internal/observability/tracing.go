package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewTracerProvider builds an SDK provider sampling ratio of new traces and
// following the parent's decision otherwise.
func NewTracerProvider(service string, ratio float64, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	base := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	}
	return sdktrace.NewTracerProvider(append(base, opts...)...)
}

// SetupTracing installs a provider globally along with W3C trace context
// propagation. The returned func flushes and stops it.
func SetupTracing(service string, ratio float64, opts ...sdktrace.TracerProviderOption) func(context.Context) error {
	tp := NewTracerProvider(service, ratio, opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown
}
