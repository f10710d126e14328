// Package metrics configures the OpenTelemetry meter provider and the
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

// Provider names a metric reader backend.
type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "otlp-grpc"
)

// ProviderCfg configures one reader.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// Config configures NewMetricProvider.
type Config struct {
	ServiceName string
	Providers   []ProviderCfg
}

// MetricProvider is the installed meter provider.
type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// NewMetricProvider builds readers for cfg.Providers and installs the meter
// provider globally. Without providers it defaults to Prometheus.
func NewMetricProvider(ctx context.Context, cfg Config) (MetricProvider, error) {
	if len(cfg.Providers) == 0 {
		cfg.Providers = []ProviderCfg{{Provider: PrometheusProvider}}
	}

	var opts []sdkmetric.Option
	for _, p := range cfg.Providers {
		reader, err := newReader(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("metrics: %s reader: %w", p.Provider, err)
		}
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	opts = append(opts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName)),
	))

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return mp, nil
}

func newReader(ctx context.Context, p ProviderCfg) (sdkmetric.Reader, error) {
	switch p.Provider {
	case PrometheusProvider:
		return prometheus.New()
	case OtelCollector:
		grpcOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(p.Endpoint),
			otlpmetricgrpc.WithHeaders(p.Headers),
		}
		if p.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}

		exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p.Provider)
	}
}

// PrometheusServer serves /metrics from the default Prometheus registry.
type PrometheusServer struct {
	srv *http.Server
	log logger.LoggerInterface
}

// NewPrometheusServer creates a scrape server on port.
func NewPrometheusServer(port int, log logger.LoggerInterface) *PrometheusServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &PrometheusServer{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start serves in the background.
func (s *PrometheusServer) Start(ctx context.Context) {
	s.log.Info(ctx, "serving prometheus metrics", "addr", s.srv.Addr, "path", "/metrics")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(ctx, "metrics server stopped", "error", err)
		}
	}()
}

// Stop shuts the server down.
func (s *PrometheusServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the scrape handler, mostly for tests.
func (s *PrometheusServer) Handler() http.Handler {
	return s.srv.Handler
}
