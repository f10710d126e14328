// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/config"
	"github.com/fd1az/flashloan-arbitrage/internal/di"
	"github.com/fd1az/flashloan-arbitrage/internal/httpclient"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
	"github.com/fd1az/flashloan-arbitrage/internal/ratelimit"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container
}

// New dials the RPC node, checks it serves the configured chain and
// registers the shared services.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	httpClient, err := httpclient.New(
		httpclient.WithProviderName("rpc"),
		httpclient.WithRequestTimeout(cfg.Network.CallTimeout),
	)
	if err != nil {
		return nil, apperror.New(apperror.CodeInternalError,
			apperror.WithCause(err), apperror.WithContext("rpc http client"))
	}

	rpcClient, err := rpc.DialOptions(ctx, cfg.Network.HTTPURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, apperror.New(apperror.CodeConnectionError,
			apperror.WithCause(err), apperror.WithContext("dial rpc"))
	}
	ethClient := ethclient.NewClient(rpcClient)

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		ethClient.Close()
		return nil, apperror.New(apperror.CodeConnectionError,
			apperror.WithCause(err), apperror.WithContext("eth_chainId"))
	}
	if chainID.Uint64() != cfg.Network.ChainID {
		ethClient.Close()
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("node serves chain %s, config expects %d", chainID, cfg.Network.ChainID)))
	}

	a := newApp(cfg, log)
	a.ethClient = ethClient
	a.container.Register("ethClient", ethClient)
	return a, nil
}

func newApp(cfg *config.Config, log logger.LoggerInterface) *app {
	container := di.NewContainer()
	assetRegistry := asset.DefaultRegistry()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("assetRegistry", assetRegistry)
	container.Register("rpcLimiter", ratelimit.New(cfg.Network.RequestsPerSecond, cfg.Network.Burst))

	return &app{
		config:        cfg,
		logger:        log,
		assetRegistry: assetRegistry,
		container:     container,
	}
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) EthClient() *ethclient.Client {
	return a.ethClient
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}
