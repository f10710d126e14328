// Package pricing implements the pricing bounded context: per-venue
// WETH/USDC quotes read from Uniswap V2 style pools.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/flashloan-arbitrage/business/pricing/app"
	pricingDI "github.com/fd1az/flashloan-arbitrage/business/pricing/di"
	"github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/business/pricing/infra/uniswapv2"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/config"
	"github.com/fd1az/flashloan-arbitrage/internal/di"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
	"github.com/fd1az/flashloan-arbitrage/internal/monolith"
	"github.com/fd1az/flashloan-arbitrage/internal/ratelimit"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register QuoteProvider (Uniswap V2 reads) - private dependency
	di.RegisterToken(c, pricingDI.QuoteProvider, func(sr di.ServiceRegistry) app.QuoteProvider {
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)
		limiter := sr.Get("rpcLimiter").(*ratelimit.Limiter)

		provider, err := uniswapv2.NewProvider(ethClient, limiter, log)
		if err != nil {
			panic("failed to create uniswap v2 provider: " + err.Error())
		}
		return provider
	})

	// Register QuoteService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.QuoteService, func(sr di.ServiceRegistry) *app.QuoteService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		venues, err := VenuesFromConfig(cfg.Venues)
		if err != nil {
			panic("failed to resolve venues: " + err.Error())
		}

		return app.NewQuoteService(
			pricingDI.GetQuoteProvider(sr),
			venues,
			PairFromConfig(cfg, registry),
			cfg.Arbitrage.QuoteTimeout,
			log,
		)
	})

	return nil
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := pricingDI.GetQuoteService(mono.Services())

	names := make([]string, 0, len(svc.Venues()))
	for _, v := range svc.Venues() {
		names = append(names, v.String())
	}

	mono.Logger().Info(ctx, "pricing module started",
		"pair", svc.Pair().String(),
		"venues", strings.Join(names, ","),
	)
	return nil
}

// VenuesFromConfig resolves the enabled venue names, in order, applying the
// configured contract addresses.
func VenuesFromConfig(cfg config.VenuesConfig) ([]domain.Venue, error) {
	out := make([]domain.Venue, 0, len(cfg.Enabled))
	seen := make(map[domain.VenueID]bool, len(cfg.Enabled))

	for _, name := range cfg.Enabled {
		id, err := domain.ParseVenue(name)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("venue %s listed twice", id)
		}
		seen[id] = true

		venue := domain.DefaultVenue(id)
		if c, ok := cfg.Contracts[id.String()]; ok {
			if c.Router != "" {
				venue.Router = c.RouterHex()
			}
			if c.Factory != "" {
				venue.Factory = c.FactoryHex()
			}
		}
		out = append(out, venue)
	}
	return out, nil
}

// PairFromConfig resolves the base and quote tokens through the registry.
func PairFromConfig(cfg *config.Config, registry *asset.Registry) domain.Pair {
	base := registry.Resolve(cfg.Network.ChainID, cfg.Tokens.Base.AddressHex(), cfg.Tokens.Base.Symbol, cfg.Tokens.Base.Decimals)
	quote := registry.Resolve(cfg.Network.ChainID, cfg.Tokens.Quote.AddressHex(), cfg.Tokens.Quote.Symbol, cfg.Tokens.Quote.Decimals)
	return domain.NewPair(base, quote)
}
