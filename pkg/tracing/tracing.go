// Package tracing configures the OpenTelemetry trace pipeline.
package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config holds OpenTelemetry tracing configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// OTLPEndpoint is either host:port (plain HTTP) or a full collector URL.
	OTLPEndpoint string
	// SampleRate is the fraction of root spans kept, 0 to 1.
	SampleRate float64
	Enabled    bool
}

// Option customizes Setup.
type Option func(*setupOptions)

type setupOptions struct {
	exporter sdktrace.SpanExporter
}

// WithExporter replaces the OTLP exporter, typically with an in-memory one.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *setupOptions) { o.exporter = exp }
}

// Provider owns the installed tracer provider, if any.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Shutdown flushes buffered spans. It is a no-op when tracing is disabled.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Setup installs the W3C trace context propagator and, when cfg.Enabled, a
// global tracer provider batching spans to the OTLP/HTTP collector. The
// propagator is installed either way so incoming trace headers are still
// forwarded.
func Setup(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	var o setupOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.exporter == nil {
		exp, err := otlptracehttp.New(ctx, endpointOption(cfg.OTLPEndpoint))
		if err != nil {
			return nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
		o.exporter = exp
	}

	res := resource.NewSchemaless(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(o.exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}, nil
}

func endpointOption(endpoint string) otlptracehttp.Option {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return otlptracehttp.WithEndpointURL(endpoint)
	}
	return otlptracehttp.WithEndpoint(endpoint)
}

// Sampler returns a parent-based sampler for rate. Rates at or above 1
// sample everything and rates at or below 0 sample nothing.
func Sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}
