// Package flashloan implements the flashloan bounded context: turning an
// acting spread decision into a two-hop flash loan and submitting it.
package flashloan

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/flashloan-arbitrage/business/flashloan/app"
	flashloanDI "github.com/fd1az/flashloan-arbitrage/business/flashloan/di"
	"github.com/fd1az/flashloan-arbitrage/business/flashloan/domain"
	"github.com/fd1az/flashloan-arbitrage/business/flashloan/infra/dodo"
	"github.com/fd1az/flashloan-arbitrage/business/flashloan/infra/wallet"
	pricingDI "github.com/fd1az/flashloan-arbitrage/business/pricing/di"
	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/config"
	"github.com/fd1az/flashloan-arbitrage/internal/di"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
	"github.com/fd1az/flashloan-arbitrage/internal/monolith"
	"github.com/fd1az/flashloan-arbitrage/internal/ratelimit"
)

// Module implements the flashloan bounded context.
type Module struct{}

// RegisterServices registers all flashloan services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Builder (private) - routers come from the pricing venues
	di.RegisterToken(c, flashloanDI.Builder, func(sr di.ServiceRegistry) *app.Builder {
		cfg := sr.Get("config").(*config.Config)
		quotes := pricingDI.GetQuoteService(sr)

		builderCfg, err := BuilderConfigFromConfig(cfg.FlashLoan)
		if err != nil {
			panic("failed to configure flash loan builder: " + err.Error())
		}
		return app.NewBuilder(app.RouterTableFromVenues(quotes.Venues()), builderCfg)
	})

	// Register Submitter (private)
	di.RegisterToken(c, flashloanDI.Submitter, func(sr di.ServiceRegistry) app.Submitter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)
		limiter := sr.Get("rpcLimiter").(*ratelimit.Limiter)

		subCfg := dodo.DefaultConfig(cfg.Network.ChainID)
		if cfg.FlashLoan.ReceiptTimeout > 0 {
			subCfg.ReceiptTimeout = cfg.FlashLoan.ReceiptTimeout
		}
		if cfg.FlashLoan.ReceiptPollInterval > 0 {
			subCfg.PollInterval = cfg.FlashLoan.ReceiptPollInterval
		}

		sub, err := dodo.NewSubmitter(ethClient, limiter, subCfg, log)
		if err != nil {
			panic("failed to create submitter: " + err.Error())
		}
		return sub
	})

	// Register FlashLoanService (public - exposed to other modules)
	di.RegisterToken(c, flashloanDI.FlashLoanService, func(sr di.ServiceRegistry) *app.FlashLoanService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		pair := pricingDI.GetQuoteService(sr).Pair()

		params, err := ParamsFromConfig(cfg, pair)
		if err != nil {
			panic("failed to configure flash loan parameters: " + err.Error())
		}

		svc, err := app.NewFlashLoanService(
			flashloanDI.GetBuilder(sr),
			flashloanDI.GetSubmitter(sr),
			params,
			log,
		)
		if err != nil {
			panic("failed to create flash loan service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup initializes the flashloan module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := flashloanDI.GetFlashLoanService(mono.Services())
	builder := flashloanDI.GetBuilder(mono.Services())
	cfg := mono.Config()

	signer := "none"
	if s := svc.Params().Signer; s != nil {
		signer = s.Address().Hex()
	}

	mono.Logger().Info(ctx, "flashloan module started",
		"contract", cfg.FlashLoan.ContractAddress,
		"pool", cfg.FlashLoan.Pool,
		"loan", svc.Params().LoanAmount.String(),
		"hop_order", builder.HopOrder().String(),
		"signer", signer,
		"dry_run", cfg.Arbitrage.DryRun,
	)
	return nil
}

// BuilderConfigFromConfig maps the flashloan config section onto the builder.
func BuilderConfigFromConfig(cfg config.FlashLoanConfig) (app.BuilderConfig, error) {
	order, err := domain.ParseHopOrder(cfg.HopOrder)
	if err != nil {
		return app.BuilderConfig{}, err
	}
	return app.BuilderConfig{
		ContractAddress: cfg.ContractAddressHex(),
		Pool:            cfg.PoolHex(),
		HopOrder:        order,
	}, nil
}

// ParamsFromConfig derives the per-request parameters. The signer is only
// loaded when a key is configured; dry runs may go without one.
func ParamsFromConfig(cfg *config.Config, pair pricingDomain.Pair) (app.BuildParams, error) {
	loan, err := cfg.FlashLoan.LoanAmountDecimal()
	if err != nil {
		return app.BuildParams{}, fmt.Errorf("loan amount: %w", err)
	}
	amount, err := asset.ParseDecimal(pair.Base, loan)
	if err != nil {
		return app.BuildParams{}, fmt.Errorf("loan amount: %w", err)
	}

	gasPrice, err := cfg.FlashLoan.GasPriceWei()
	if err != nil {
		return app.BuildParams{}, fmt.Errorf("gas price: %w", err)
	}

	params := app.BuildParams{
		LoanAmount: amount,
		GasLimit:   cfg.FlashLoan.GasLimit,
		GasPrice:   gasPrice,
	}

	if cfg.Wallet.PrivateKey != "" {
		signer, err := wallet.NewKeySigner(cfg.Wallet.PrivateKey)
		if err != nil {
			return app.BuildParams{}, err
		}
		params.Signer = signer
	}
	return params, nil
}
