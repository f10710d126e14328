// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Network   NetworkConfig   `mapstructure:"network"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Tokens    TokensConfig    `mapstructure:"tokens"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	FlashLoan FlashLoanConfig `mapstructure:"flashloan"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// NetworkConfig holds RPC endpoint settings.
type NetworkConfig struct {
	HTTPURL      string        `mapstructure:"http_url"`
	WebSocketURL string        `mapstructure:"websocket_url"` // optional, enables head subscription
	ChainID      uint64        `mapstructure:"chain_id"`
	CallTimeout  time.Duration `mapstructure:"call_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"` // head polling when no websocket

	// RPC throttle shared by all reads.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// VenueContracts holds a venue's router and factory addresses.
type VenueContracts struct {
	Router  string `mapstructure:"router"`
	Factory string `mapstructure:"factory"`
}

// RouterHex returns the router address as common.Address.
func (v VenueContracts) RouterHex() common.Address {
	return common.HexToAddress(v.Router)
}

// FactoryHex returns the factory address as common.Address.
func (v VenueContracts) FactoryHex() common.Address {
	return common.HexToAddress(v.Factory)
}

// VenuesConfig selects and addresses the DEX venues to compare.
type VenuesConfig struct {
	Enabled   []string                  `mapstructure:"enabled"`
	Contracts map[string]VenueContracts `mapstructure:"contracts"`
}

// TokenConfig describes one side of the traded pair.
type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
}

// AddressHex returns the token address as common.Address.
func (t TokenConfig) AddressHex() common.Address {
	return common.HexToAddress(t.Address)
}

// TokensConfig holds the base (loan) and quote tokens.
type TokensConfig struct {
	Base  TokenConfig `mapstructure:"base"`
	Quote TokenConfig `mapstructure:"quote"`
}

// ArbitrageConfig holds spread detection settings.
type ArbitrageConfig struct {
	MinSpread     string        `mapstructure:"min_spread"` // quote-token units, e.g. "10"
	CheckInterval time.Duration `mapstructure:"check_interval"`
	BlockDriven   bool          `mapstructure:"block_driven"`
	QuoteTimeout  time.Duration `mapstructure:"quote_timeout"`
	DryRun        bool          `mapstructure:"dry_run"`
	TUIMode       bool          `mapstructure:"-"` // Set at runtime, not from config file
}

// MinSpreadDecimal parses the threshold.
func (c *ArbitrageConfig) MinSpreadDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.MinSpread)
}

// FlashLoanConfig holds flash loan request parameters.
type FlashLoanConfig struct {
	ContractAddress     string        `mapstructure:"contract_address"`
	Pool                string        `mapstructure:"pool"`
	LoanAmount          string        `mapstructure:"loan_amount"` // base-token units, e.g. "0.5"
	GasLimit            uint64        `mapstructure:"gas_limit"`
	GasPriceGwei        string        `mapstructure:"gas_price_gwei"`
	HopOrder            string        `mapstructure:"hop_order"` // rich_first | cheap_first
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
}

// ContractAddressHex returns the flash loan contract address.
func (c *FlashLoanConfig) ContractAddressHex() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// PoolHex returns the lending pool address.
func (c *FlashLoanConfig) PoolHex() common.Address {
	return common.HexToAddress(c.Pool)
}

// LoanAmountDecimal parses the loan size.
func (c *FlashLoanConfig) LoanAmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.LoanAmount)
}

// GasPriceWei converts the configured gwei price to wei.
func (c *FlashLoanConfig) GasPriceWei() (*big.Int, error) {
	d, err := decimal.NewFromString(c.GasPriceGwei)
	if err != nil {
		return nil, err
	}
	return d.Shift(9).BigInt(), nil
}

// WalletConfig holds the signing key. Supply it through the environment only.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"` // zipkin | otlp-grpc | otlp-http | stdout
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Option customises the viper instance before unmarshalling.
type Option func(v *viper.Viper) error

// WithFlag binds a command-line flag to a config key; a flag set on the
// command line wins over file and environment.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(v *viper.Viper) error {
		if flag == nil {
			return nil
		}
		return v.BindPFlag(key, flag)
	}
}

// WithValue forces key to value regardless of file, environment or flags.
func WithValue(key string, value any) Option {
	return func(v *viper.Viper) error {
		v.Set(key, value)
		return nil
	}
}

// Load loads configuration from file and environment variables.
func Load(configPath string, opts ...Option) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("failed to apply config option: %w", err)
		}
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Network
	v.BindEnv("network.http_url", "ARB_RPC_HTTP_URL", "POLYGON_RPC_URL", "ALCHEMY_POLYGON_RPC_URL")
	v.BindEnv("network.websocket_url", "ARB_RPC_WS_URL", "POLYGON_WS_URL")
	v.BindEnv("network.chain_id", "ARB_CHAIN_ID")

	// Venues
	v.BindEnv("venues.enabled", "ARB_VENUES")

	// Arbitrage
	v.BindEnv("arbitrage.min_spread", "ARB_MIN_SPREAD")
	v.BindEnv("arbitrage.dry_run", "ARB_DRY_RUN")

	// Flash loan
	v.BindEnv("flashloan.contract_address", "ARB_FLASHLOAN_CONTRACT", "FLASHLOAN_CONTRACT_ADDRESS")
	v.BindEnv("flashloan.pool", "ARB_FLASHLOAN_POOL")
	v.BindEnv("flashloan.loan_amount", "ARB_LOAN_AMOUNT")
	v.BindEnv("flashloan.gas_price_gwei", "ARB_GAS_PRICE_GWEI")

	// Wallet
	v.BindEnv("wallet.private_key", "ARB_PRIVATE_KEY", "PRIVATE_KEY")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// Polygon PoS venue deployments.
var defaultVenueContracts = map[string]VenueContracts{
	"uniswap":   {Router: "0xedf6066a2b290C185783862C7F4776A2C8077AD1", Factory: "0x9e5A52f57b3038F1B8EeE45F28b3C1967e22799C"},
	"sushiswap": {Router: "0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506", Factory: "0xc35DADB65012eC5796536bD9864eD8773aBc74C4"},
	"quickswap": {Router: "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff", Factory: "0x5757371414417b8C6CAad45bAeF941aBc7d3Ab32"},
	"apeswap":   {Router: "0xC0788A3aD43d79aa53B09c2EaCc313A787d1d607", Factory: "0xCf083Be4164828f00cAE704EC15a36D711491284"},
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flashloan-arbitrage")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Polygon defaults
	v.SetDefault("network.chain_id", 137)
	v.SetDefault("network.call_timeout", "10s")
	v.SetDefault("network.poll_interval", "2s")
	v.SetDefault("network.requests_per_second", 25)
	v.SetDefault("network.burst", 10)

	v.SetDefault("venues.enabled", []string{"sushiswap", "quickswap", "apeswap"})
	for name, c := range defaultVenueContracts {
		v.SetDefault("venues.contracts."+name+".router", c.Router)
		v.SetDefault("venues.contracts."+name+".factory", c.Factory)
	}

	v.SetDefault("tokens.base.symbol", "WETH")
	v.SetDefault("tokens.base.address", "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619")
	v.SetDefault("tokens.base.decimals", 18)
	v.SetDefault("tokens.quote.symbol", "USDC")
	v.SetDefault("tokens.quote.address", "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	v.SetDefault("tokens.quote.decimals", 6)

	// Arbitrage defaults
	v.SetDefault("arbitrage.min_spread", "10")
	v.SetDefault("arbitrage.check_interval", "5s")
	v.SetDefault("arbitrage.block_driven", true)
	v.SetDefault("arbitrage.quote_timeout", "8s")
	v.SetDefault("arbitrage.dry_run", false)

	// Flash loan defaults (DODO V2 WETH pool)
	v.SetDefault("flashloan.pool", "0x5333Eb1E32522F1893B7C9feA3c263807A02d561")
	v.SetDefault("flashloan.loan_amount", "0.5")
	v.SetDefault("flashloan.gas_limit", 3_000_000)
	v.SetDefault("flashloan.gas_price_gwei", "300")
	v.SetDefault("flashloan.hop_order", "rich_first")
	v.SetDefault("flashloan.receipt_timeout", "2m")
	v.SetDefault("flashloan.receipt_poll_interval", "2s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flashloan-arbitrage")
	v.SetDefault("telemetry.exporter", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Network.HTTPURL == "" {
		return fmt.Errorf("network.http_url is required")
	}
	if c.Network.ChainID == 0 {
		return fmt.Errorf("network.chain_id is required")
	}

	if len(c.Venues.Enabled) < 2 {
		return fmt.Errorf("venues.enabled needs at least two venues, got %d", len(c.Venues.Enabled))
	}
	for _, name := range c.Venues.Enabled {
		vc, ok := c.Venues.Contracts[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown venue %q: no contracts configured", name)
		}
		if !common.IsHexAddress(vc.Router) {
			return fmt.Errorf("invalid router for venue %s: %s", name, vc.Router)
		}
		if !common.IsHexAddress(vc.Factory) {
			return fmt.Errorf("invalid factory for venue %s: %s", name, vc.Factory)
		}
	}

	for side, t := range map[string]TokenConfig{"base": c.Tokens.Base, "quote": c.Tokens.Quote} {
		if !common.IsHexAddress(t.Address) {
			return fmt.Errorf("invalid tokens.%s.address: %s", side, t.Address)
		}
	}
	if strings.EqualFold(c.Tokens.Base.Address, c.Tokens.Quote.Address) {
		return fmt.Errorf("tokens.base and tokens.quote must differ")
	}

	if d, err := c.Arbitrage.MinSpreadDecimal(); err != nil || d.IsNegative() {
		return fmt.Errorf("invalid arbitrage.min_spread: %q", c.Arbitrage.MinSpread)
	}
	if c.Arbitrage.CheckInterval <= 0 {
		return fmt.Errorf("arbitrage.check_interval must be positive")
	}

	if d, err := c.FlashLoan.LoanAmountDecimal(); err != nil || !d.IsPositive() {
		return fmt.Errorf("invalid flashloan.loan_amount: %q", c.FlashLoan.LoanAmount)
	}
	if c.FlashLoan.GasLimit == 0 {
		return fmt.Errorf("flashloan.gas_limit must be positive")
	}
	if p, err := c.FlashLoan.GasPriceWei(); err != nil || p.Sign() <= 0 {
		return fmt.Errorf("invalid flashloan.gas_price_gwei: %q", c.FlashLoan.GasPriceGwei)
	}
	switch c.FlashLoan.HopOrder {
	case "rich_first", "cheap_first":
	default:
		return fmt.Errorf("invalid flashloan.hop_order: %q", c.FlashLoan.HopOrder)
	}
	if !common.IsHexAddress(c.FlashLoan.Pool) {
		return fmt.Errorf("invalid flashloan.pool: %s", c.FlashLoan.Pool)
	}

	if !c.Arbitrage.DryRun {
		if !common.IsHexAddress(c.FlashLoan.ContractAddress) {
			return fmt.Errorf("flashloan.contract_address is required unless dry_run is set")
		}
		if c.Wallet.PrivateKey == "" {
			return fmt.Errorf("wallet.private_key is required unless dry_run is set")
		}
	}

	return nil
}
