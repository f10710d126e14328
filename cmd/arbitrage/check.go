package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	arbitrageApp "github.com/fd1az/flashloan-arbitrage/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/flashloan-arbitrage/business/arbitrage/di"
	"github.com/fd1az/flashloan-arbitrage/internal/config"
)

var execute bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single check cycle and print the decision",
	Long: `Quotes every enabled venue once, prints the prices and the biggest price
difference, and builds the flash loan when the spread exceeds the minimum.
Nothing is submitted unless --execute is given.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(
		config.WithValue("arbitrage.dry_run", !execute),
		config.WithValue("arbitrage.block_driven", false),
	)
	if err != nil {
		return err
	}

	a, err := bootstrap(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	// The detector is resolved but not started: one cycle, reported to the
	// console.
	detector := arbitrageDI.GetDetector(a.mono.Services())
	cycle := detector.Check(ctx, 0)

	switch cycle.Outcome {
	case arbitrageApp.OutcomeFailed, arbitrageApp.OutcomeReverted:
		return fmt.Errorf("check %s: %w", cycle.Outcome, cycle.Err)
	}
	return nil
}
