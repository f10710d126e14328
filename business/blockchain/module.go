// Package blockchain implements the blockchain bounded context: new block
// notifications that drive the arbitrage checks.
package blockchain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/flashloan-arbitrage/business/blockchain/app"
	blockchainDI "github.com/fd1az/flashloan-arbitrage/business/blockchain/di"
	"github.com/fd1az/flashloan-arbitrage/business/blockchain/infra/ethereum"
	"github.com/fd1az/flashloan-arbitrage/internal/config"
	"github.com/fd1az/flashloan-arbitrage/internal/di"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
	"github.com/fd1az/flashloan-arbitrage/internal/monolith"
)

const dialTimeout = 10 * time.Second

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register BlockSubscriber (private - internal dependency)
	di.RegisterToken(c, blockchainDI.BlockSubscriber, func(sr di.ServiceRegistry) app.BlockSubscriber {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		httpClient := sr.Get("ethClient").(*ethclient.Client)

		subCfg := ethereum.DefaultSubscriberConfig()
		if cfg.Network.PollInterval > 0 {
			subCfg.PollInterval = cfg.Network.PollInterval
		}

		var stream ethereum.HeadStreamer
		if wsClient := dialStream(cfg.Network.WebSocketURL, log); wsClient != nil {
			stream = wsClient
		}

		sub, err := ethereum.NewSubscriber(subCfg, stream, httpClient, log)
		if err != nil {
			panic("failed to create subscriber: " + err.Error())
		}
		return sub
	})

	// Register BlockchainService (public - exposed to other modules)
	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		return app.NewBlockchainService(blockchainDI.GetBlockSubscriber(sr))
	})

	return nil
}

// Startup initializes the blockchain module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := blockchainDI.GetBlockchainService(mono.Services())

	block, err := svc.LatestBlock(ctx)
	if err != nil {
		// Not fatal: the subscriber keeps polling.
		mono.Logger().Error(ctx, "failed to read chain head", "error", err)
	} else {
		mono.Logger().Info(ctx, "blockchain module started", "head", block.Number)
	}
	return nil
}

// dialStream connects the websocket endpoint. Without one, or when it is
// unreachable, blocks are polled over HTTP.
func dialStream(url string, log logger.LoggerInterface) *ethclient.Client {
	if url == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		log.Warn(ctx, "websocket dial failed, polling instead", "error", err)
		return nil
	}
	return client
}
