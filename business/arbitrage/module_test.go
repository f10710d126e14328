package arbitrage

import (
	"testing"
	"time"

	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/config"
)

func TestDetectorConfigFromConfig(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)

	tests := []struct {
		name    string
		cfg     config.ArbitrageConfig
		want    string
		wantErr bool
	}{
		{name: "whole_units", cfg: config.ArbitrageConfig{MinSpread: "10"}, want: "10"},
		{name: "fractional", cfg: config.ArbitrageConfig{MinSpread: "0.20"}, want: "0.2"},
		{name: "not_a_number", cfg: config.ArbitrageConfig{MinSpread: "ten"}, wantErr: true},
		{name: "negative", cfg: config.ArbitrageConfig{MinSpread: "-1"}, wantErr: true},
		{name: "finer_than_token", cfg: config.ArbitrageConfig{MinSpread: "0.0000001"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectorConfigFromConfig(tt.cfg, pair)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.MinSpread.Asset().Equals(asset.USDC) {
				t.Errorf("min spread asset = %s, want USDC", got.MinSpread.Asset())
			}
			if s := got.MinSpread.ToDecimal().String(); s != tt.want {
				t.Errorf("min spread = %s, want %s", s, tt.want)
			}
		})
	}

	t.Run("carries_loop_settings", func(t *testing.T) {
		got, err := DetectorConfigFromConfig(config.ArbitrageConfig{
			MinSpread:     "10",
			CheckInterval: 3 * time.Second,
			BlockDriven:   true,
			DryRun:        true,
		}, pair)
		if err != nil {
			t.Fatal(err)
		}
		if got.CheckInterval != 3*time.Second || !got.BlockDriven || !got.DryRun {
			t.Errorf("config = %+v", got)
		}
	})
}
