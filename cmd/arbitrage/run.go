package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	arbitrageDI "github.com/fd1az/flashloan-arbitrage/business/arbitrage/di"
	blockchainDI "github.com/fd1az/flashloan-arbitrage/business/blockchain/di"
	"github.com/fd1az/flashloan-arbitrage/internal/config"
	"github.com/fd1az/flashloan-arbitrage/internal/health"
	"github.com/fd1az/flashloan-arbitrage/pkg/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run check cycles on every new block (the default)",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(config.WithFlag("arbitrage.dry_run", cmd.Flags().Lookup("dry-run")))
	if err != nil {
		return err
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !cliMode
	cfg.Arbitrage.TUIMode = tuiMode

	var logOut io.Writer = os.Stderr
	if tuiMode {
		// Logs would tear the alt screen
		logOut = io.Discard
	}

	a, err := bootstrap(ctx, cfg, logOut)
	if err != nil {
		return err
	}
	defer a.close()

	a.log.Info(ctx, "starting flash loan arbitrage",
		"version", version,
		"environment", cfg.App.Environment,
		"dry_run", cfg.Arbitrage.DryRun,
	)

	healthServer := health.NewServer(cfg.Telemetry.HealthPort, version, a.log)
	healthServer.RegisterCheck("blockchain", func(ctx context.Context) (bool, string) {
		return blockchainDI.GetBlockchainService(a.mono.Services()).Check(ctx)
	})
	healthServer.RegisterCheck("detector", func(ctx context.Context) (bool, string) {
		return arbitrageDI.GetDetector(a.mono.Services()).Alive(ctx)
	})
	healthServer.Start(ctx)
	a.closers = append(a.closers, healthServer.Stop)

	stop := func() {
		if err := arbitrageDI.GetDetector(a.mono.Services()).Stop(); err != nil {
			a.log.Error(ctx, "error stopping detector", "error", err)
		}
		if err := blockchainDI.GetBlockchainService(a.mono.Services()).Close(); err != nil {
			a.log.Error(ctx, "error closing block subscription", "error", err)
		}
	}

	if tuiMode {
		return runTUI(ctx, a, stop)
	}
	return runCLI(ctx, a, stop)
}

func runCLI(ctx context.Context, a *application, stop func()) error {
	if err := a.mono.StartModules(ctx, a.modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	a.log.Info(ctx, "all modules started, watching spreads")

	<-ctx.Done()

	a.log.Info(ctx, "shutting down")
	stop()
	return nil
}

func runTUI(parent context.Context, a *application, stop func()) error {
	// Quitting the TUI ends the run as well as a signal does.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// Show the welcome screen immediately
	p := tea.NewProgram(ui.New(), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		// Config was loaded and the RPC node answered before the TUI started.
		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		ui.Send(ui.ConnectionStatusMsg{Name: "rpc", Connected: true})

		if err := a.mono.StartModules(ctx, a.modules...); err != nil {
			err = fmt.Errorf("failed to start modules: %w", err)
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		<-ctx.Done()
		stop()
		errCh <- nil
	}()

	_, runErr := p.Run()
	killed := ctx.Err() != nil
	cancel()

	// Wait for the detector to stop before the deferred closers run.
	if err := <-errCh; err != nil {
		return err
	}
	if runErr != nil && !killed {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
