package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_DefaultsFromEnv(t *testing.T) {
	t.Setenv("ARB_RPC_HTTP_URL", "http://localhost:8545")
	t.Setenv("ARB_DRY_RUN", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Network.ChainID != 137 {
		t.Errorf("ChainID = %d, want 137", cfg.Network.ChainID)
	}
	if got := strings.Join(cfg.Venues.Enabled, ","); got != "sushiswap,quickswap,apeswap" {
		t.Errorf("Enabled = %s", got)
	}
	if cfg.Venues.Contracts["quickswap"].Router != "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff" {
		t.Errorf("quickswap router = %s", cfg.Venues.Contracts["quickswap"].Router)
	}
	if cfg.FlashLoan.GasLimit != 3_000_000 {
		t.Errorf("GasLimit = %d", cfg.FlashLoan.GasLimit)
	}
	if cfg.Arbitrage.CheckInterval != 5*time.Second {
		t.Errorf("CheckInterval = %s", cfg.Arbitrage.CheckInterval)
	}

	price, err := cfg.FlashLoan.GasPriceWei()
	if err != nil || price.String() != "300000000000" {
		t.Errorf("GasPriceWei() = %v, %v", price, err)
	}
	spread, _ := cfg.Arbitrage.MinSpreadDecimal()
	if spread.String() != "10" {
		t.Errorf("MinSpread = %s", spread)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
network:
  http_url: http://node:8545
venues:
  enabled: [sushiswap, quickswap]
arbitrage:
  min_spread: "0.20"
  dry_run: true
flashloan:
  loan_amount: "1.5"
  hop_order: cheap_first
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Venues.Enabled) != 2 {
		t.Errorf("Enabled = %v", cfg.Venues.Enabled)
	}
	if cfg.Arbitrage.MinSpread != "0.20" {
		t.Errorf("MinSpread = %s", cfg.Arbitrage.MinSpread)
	}
	if cfg.FlashLoan.HopOrder != "cheap_first" {
		t.Errorf("HopOrder = %s", cfg.FlashLoan.HopOrder)
	}
	// Untouched venue defaults survive a partial file.
	if cfg.Venues.Contracts["sushiswap"].Factory == "" {
		t.Error("sushiswap factory default lost")
	}
}

func TestLoad_FlagWins(t *testing.T) {
	t.Setenv("ARB_RPC_HTTP_URL", "http://localhost:8545")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("dry-run", false, "")
	if err := fs.Parse([]string{"--dry-run"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", WithFlag("arbitrage.dry_run", fs.Lookup("dry-run")))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Arbitrage.DryRun {
		t.Error("flag should enable dry run")
	}
}

func TestLoad_WithValue(t *testing.T) {
	t.Setenv("ARB_RPC_HTTP_URL", "http://localhost:8545")
	t.Setenv("ARB_DRY_RUN", "false")

	cfg, err := Load("", WithValue("arbitrage.dry_run", true))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Arbitrage.DryRun {
		t.Error("forced value should win over the environment")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Network: NetworkConfig{HTTPURL: "http://x", ChainID: 137},
			Venues: VenuesConfig{
				Enabled:   []string{"sushiswap", "quickswap"},
				Contracts: defaultVenueContracts,
			},
			Tokens: TokensConfig{
				Base:  TokenConfig{Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18},
				Quote: TokenConfig{Address: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", Decimals: 6},
			},
			Arbitrage: ArbitrageConfig{MinSpread: "10", CheckInterval: time.Second},
			FlashLoan: FlashLoanConfig{
				ContractAddress: "0x00000000000000000000000000000000000000aa",
				Pool:            "0x5333Eb1E32522F1893B7C9feA3c263807A02d561",
				LoanAmount:      "0.5",
				GasLimit:        3_000_000,
				GasPriceGwei:    "300",
				HopOrder:        "rich_first",
			},
			Wallet: WalletConfig{PrivateKey: "abc"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing_rpc", func(c *Config) { c.Network.HTTPURL = "" }, "network.http_url"},
		{"single_venue", func(c *Config) { c.Venues.Enabled = []string{"sushiswap"} }, "at least two"},
		{"unknown_venue", func(c *Config) { c.Venues.Enabled = []string{"sushiswap", "pancake"} }, "unknown venue"},
		{"zero_loan", func(c *Config) { c.FlashLoan.LoanAmount = "0" }, "loan_amount"},
		{"zero_gas_limit", func(c *Config) { c.FlashLoan.GasLimit = 0 }, "gas_limit"},
		{"bad_hop_order", func(c *Config) { c.FlashLoan.HopOrder = "random" }, "hop_order"},
		{"same_tokens", func(c *Config) { c.Tokens.Quote = c.Tokens.Base }, "must differ"},
		{"missing_key", func(c *Config) { c.Wallet.PrivateKey = "" }, "private_key"},
		{"missing_key_dry_run", func(c *Config) {
			c.Wallet.PrivateKey = ""
			c.FlashLoan.ContractAddress = ""
			c.Arbitrage.DryRun = true
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
