package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fd1az/flashloan-arbitrage/business/arbitrage"
	"github.com/fd1az/flashloan-arbitrage/business/blockchain"
	"github.com/fd1az/flashloan-arbitrage/business/flashloan"
	"github.com/fd1az/flashloan-arbitrage/business/pricing"
	"github.com/fd1az/flashloan-arbitrage/internal/apm"
	"github.com/fd1az/flashloan-arbitrage/internal/config"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
	"github.com/fd1az/flashloan-arbitrage/internal/metrics"
	"github.com/fd1az/flashloan-arbitrage/internal/monolith"
)

const shutdownTimeout = 5 * time.Second

// application is the wired bot: config, logger, telemetry and the module
// container. Closers run in reverse order.
type application struct {
	cfg     *config.Config
	log     *logger.Logger
	mono    interface {
		monolith.Monolith
		RegisterModules(...monolith.Module) error
		StartModules(context.Context, ...monolith.Module) error
		Close() error
	}
	modules []monolith.Module
	closers []func(context.Context) error
}

func newLogger(cfg *config.Config, w io.Writer) *logger.Logger {
	return logger.New(w, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
}

// bootstrap builds the application. Nothing is started yet; factories run
// lazily when a module or command first resolves a service.
func bootstrap(ctx context.Context, cfg *config.Config, logOut io.Writer) (*application, error) {
	a := &application{
		cfg: cfg,
		log: newLogger(cfg, logOut),
	}

	if cfg.Telemetry.Enabled {
		if err := a.initTelemetry(ctx); err != nil {
			a.close()
			return nil, err
		}
	}

	mono, err := monolith.New(ctx, cfg, a.log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create monolith: %w", err)
	}
	a.mono = mono
	a.closers = append(a.closers, func(context.Context) error { return mono.Close() })

	// Dependency order: pricing provides venues and the pair, flashloan
	// builds on them, blockchain feeds blocks, arbitrage ties it together.
	a.modules = []monolith.Module{
		&pricing.Module{},
		&flashloan.Module{},
		&blockchain.Module{},
		&arbitrage.Module{},
	}
	if err := mono.RegisterModules(a.modules...); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}
	return a, nil
}

func (a *application) initTelemetry(ctx context.Context) error {
	tel := a.cfg.Telemetry

	tp, err := apm.NewTraceProvider(ctx, a.log, apm.Options{
		ServiceName: tel.ServiceName,
		Provider:    apm.Provider(tel.Exporter),
		Endpoint:    tel.OTLPEndpoint,
		Headers:     tel.OTLPHeaders,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return tp.Stop() })

	providers := []metrics.ProviderCfg{{Provider: metrics.PrometheusProvider}}
	if apm.Provider(tel.Exporter) == apm.OTLPGRPCProvider && tel.OTLPEndpoint != "" {
		providers = append(providers, metrics.ProviderCfg{
			Provider: metrics.OtelCollector,
			Endpoint: tel.OTLPEndpoint,
			Headers:  apm.ParseHeaders(tel.OTLPHeaders),
		})
	}
	mp, err := metrics.NewMetricProvider(ctx, metrics.Config{ServiceName: tel.ServiceName, Providers: providers})
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	a.closers = append(a.closers, mp.Shutdown)

	prom := metrics.NewPrometheusServer(tel.PrometheusPort, a.log)
	prom.Start(ctx)
	a.closers = append(a.closers, prom.Stop)

	a.log.Info(ctx, "telemetry initialized", "exporter", tel.Exporter, "prometheus_port", tel.PrometheusPort)
	return nil
}

// close runs the closers newest first with a fresh deadline; the run
// context is usually already cancelled by then.
func (a *application) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn(ctx, "shutdown step failed", "error", err)
		}
	}
}

func loadConfig(opts ...config.Option) (*config.Config, error) {
	cfg, err := config.Load(cfgFile, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
