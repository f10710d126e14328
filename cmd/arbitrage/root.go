package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfgFile string
	cliMode bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "arbitrage",
	Short: "WETH/USDC flash loan arbitrage across Polygon DEXes",
	Long: `Quotes WETH in USDC on every enabled Uniswap V2 style venue, and when the
spread between the cheapest and richest venue exceeds the configured minimum,
borrows WETH from a DODO pool and sells it on the rich venue, buying it back
on the cheap one inside a single flash loan transaction.`,
	SilenceUsage: true,
	RunE:         runBot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flashloan-arbitrage %s (commit: %s, built: %s)\n", version, commit, buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file (default ./config.yaml)")
	addRunFlags(rootCmd.Flags())
	addRunFlags(runCmd.Flags())

	checkCmd.Flags().BoolVar(&execute, "execute", false, "submit the flash loan if the spread is worth it")

	rootCmd.AddCommand(runCmd, checkCmd, versionCmd)
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&cliMode, "cli", false, "run in CLI mode with logs (no TUI)")
	fs.BoolVar(&dryRun, "dry-run", false, "build flash loans but never submit them")
}
