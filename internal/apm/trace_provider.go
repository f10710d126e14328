// Package apm configures OpenTelemetry tracing.
package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

// Provider names an exporter backend.
type Provider string

const (
	ZipkinProvider   Provider = "zipkin"
	OTLPGRPCProvider Provider = "otlp-grpc"
	OTLPHTTPProvider Provider = "otlp-http"
	ConsoleProvider  Provider = "stdout"
	EmptyProvider    Provider = "none"
)

// TraceProvider is a running tracer provider.
type TraceProvider interface {
	Stop() error
}

// Options configures NewTraceProvider.
type Options struct {
	ServiceName string
	Provider    Provider
	Endpoint    string
	// Headers in "k1=v1,k2=v2" form, sent with OTLP exports.
	Headers string
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyProvider struct{}

func (emptyProvider) Stop() error { return nil }

// NewTraceProvider builds an exporter for opts.Provider and installs the
// resulting provider and W3C propagators globally.
func NewTraceProvider(ctx context.Context, log logger.LoggerInterface, opts Options) (TraceProvider, error) {
	exp, err := newExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("apm: %s exporter: %w", opts.Provider, err)
	}
	if exp == nil {
		log.Info(ctx, "tracing disabled", "provider", opts.Provider)
		return emptyProvider{}, nil
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.ServiceName),
			attribute.String("otel.provider", string(opts.Provider)),
		))
	if err != nil {
		// Schema URL conflicts still yield a usable resource.
		log.Warn(ctx, "merging trace resource", "error", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing enabled", "provider", opts.Provider, "endpoint", opts.Endpoint)
	return &traceProvider{tp}, nil
}

func newExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Provider {
	case ZipkinProvider:
		return zipkin.New(opts.Endpoint)
	case OTLPGRPCProvider:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(opts.Endpoint),
			otlptracegrpc.WithHeaders(ParseHeaders(opts.Headers)),
		)
	case OTLPHTTPProvider:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(opts.Endpoint),
			otlptracehttp.WithHeaders(ParseHeaders(opts.Headers)),
		)
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case EmptyProvider, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}
}

// ParseHeaders turns "k1=v1,k2=v2" into a map, skipping malformed pairs.
func ParseHeaders(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return o.tp.Shutdown(ctx)
}
