// Package ui provides the Bubble Tea TUI for the flash-loan arbitrage bot.
package ui

import (
	"time"

	"github.com/fd1az/flashloan-arbitrage/pkg/ui/components"
)

// Message types for TUI updates.
// All values are pre-computed by the domain; the UI only displays them.

// CycleMsg is sent after every detection cycle.
type CycleMsg struct {
	Time     time.Time
	Block    uint64
	Pair     string
	Quotes   []components.VenueRow
	Summary  *components.SpreadSummary // nil when fewer than two venues answered
	Decision *components.DecisionRow   // non-nil when the spread was acted on
	Outcome  string
	Duration time.Duration
	Err      string
}

// ConnectionStatusMsg is sent when connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// BlockMsg is sent when a new block is received.
type BlockMsg struct {
	Number    uint64
	Timestamp time.Time
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // "config", "rpc", "blocks", "venues"
	Status  string // "connecting", "connected", "done", "failed"
	Message string
}
