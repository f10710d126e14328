// Package arbitrage implements the arbitrage bounded context: running
// check cycles that quote every venue, detect the spread and act on it.
package arbitrage

import (
	"context"
	"fmt"

	"github.com/fd1az/flashloan-arbitrage/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/flashloan-arbitrage/business/arbitrage/di"
	"github.com/fd1az/flashloan-arbitrage/business/arbitrage/infra"
	blockchainDI "github.com/fd1az/flashloan-arbitrage/business/blockchain/di"
	flashloanDI "github.com/fd1az/flashloan-arbitrage/business/flashloan/di"
	pricingDI "github.com/fd1az/flashloan-arbitrage/business/pricing/di"
	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/config"
	"github.com/fd1az/flashloan-arbitrage/internal/di"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
	"github.com/fd1az/flashloan-arbitrage/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Reporter (private) - TUI or console depending on run mode
	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Arbitrage.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter(nil)
	})

	// Register Detector (public)
	di.RegisterToken(c, arbitrageDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		quotes := pricingDI.GetQuoteService(sr)

		detCfg, err := DetectorConfigFromConfig(cfg.Arbitrage, quotes.Pair())
		if err != nil {
			panic("failed to configure detector: " + err.Error())
		}

		var blocks app.BlockSource
		if detCfg.BlockDriven {
			blocks = blockchainDI.GetBlockchainService(sr)
		}

		detector, err := app.NewDetector(
			quotes,
			flashloanDI.GetFlashLoanService(sr),
			blocks,
			arbitrageDI.GetReporter(sr),
			detCfg,
			log,
		)
		if err != nil {
			panic("failed to create detector: " + err.Error())
		}
		return detector
	})

	return nil
}

// Startup starts the check loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	detector := arbitrageDI.GetDetector(mono.Services())
	cfg := mono.Config().Arbitrage

	if err := detector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start detector: %w", err)
	}

	mono.Logger().Info(ctx, "arbitrage module started",
		"min_spread", cfg.MinSpread,
		"block_driven", cfg.BlockDriven,
		"check_interval", cfg.CheckInterval,
		"dry_run", cfg.DryRun,
	)
	return nil
}

// DetectorConfigFromConfig maps the arbitrage config section onto the
// detector. The threshold is expressed in the pair's quote token.
func DetectorConfigFromConfig(cfg config.ArbitrageConfig, pair pricingDomain.Pair) (app.DetectorConfig, error) {
	dec, err := cfg.MinSpreadDecimal()
	if err != nil {
		return app.DetectorConfig{}, fmt.Errorf("min spread %q: %w", cfg.MinSpread, err)
	}
	minSpread, err := asset.ParseDecimal(pair.Quote, dec)
	if err != nil {
		return app.DetectorConfig{}, fmt.Errorf("min spread %q: %w", cfg.MinSpread, err)
	}

	return app.DetectorConfig{
		MinSpread:     minSpread,
		CheckInterval: cfg.CheckInterval,
		BlockDriven:   cfg.BlockDriven,
		DryRun:        cfg.DryRun,
	}, nil
}
