// Package observability installs the process-wide OpenTelemetry tracer
// provider. Spans from the HTTP layer, the queue consumer, the assistant
// pipeline and the LLM caller all flow through it.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-assistant-backend/internal/config"
)

// Build identifies the running process in exported traces.
type Build struct {
	Version  string
	Instance string // service.instance.id, usually the hostname
	Provider string // language-model provider active at startup
}

// attributes returns the resource attributes for b under serviceName.
func (b Build) attributes(serviceName string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(b.Version),
	}
	if b.Instance != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(b.Instance))
	}
	if b.Provider != "" {
		attrs = append(attrs, attribute.String("llm.provider", b.Provider))
	}
	return attrs
}

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName string, b Build) (*resource.Resource, error) {
		return resource.New(ctx, resource.WithAttributes(b.attributes(serviceName)...))
	}
)

// sampleRatio clamps r into [0, 1].
func sampleRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// Setup configures OpenTelemetry tracing and returns a shutdown function.
// When tracing is disabled the globals are left alone and shutdown is a no-op.
func Setup(ctx context.Context, cfg config.OTELConfig, b Build) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, b)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	)

	// Globals are only touched once everything above succeeded.
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}
