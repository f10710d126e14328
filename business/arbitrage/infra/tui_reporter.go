package infra

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-arbitrage/business/arbitrage/app"
	"github.com/fd1az/flashloan-arbitrage/pkg/ui"
	"github.com/fd1az/flashloan-arbitrage/pkg/ui/components"
)

// TUIReporter implements app.Reporter by forwarding cycles to the Bubble
// Tea program.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter creates a TUIReporter that sends to the running program.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: ui.Send}
}

// Start marks the block subscription step as in progress.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "blocks", Status: "connecting"})
	return nil
}

// ReportCycle sends the cycle, and its error if any, to the UI.
func (r *TUIReporter) ReportCycle(c *app.Cycle) {
	if c == nil {
		return
	}
	r.send(CycleMessage(c))
	if c.Err != nil {
		r.send(ui.ErrorMsg{Error: c.Err})
	}
}

// UpdateConnectionStatus sends a connection status change.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
}

// Stop is a no-op; the program is owned by main.
func (r *TUIReporter) Stop() error {
	return nil
}

// CycleMessage flattens a cycle into display values.
func CycleMessage(c *app.Cycle) ui.CycleMsg {
	msg := ui.CycleMsg{
		Time:     c.StartedAt,
		Block:    c.Block,
		Outcome:  string(c.Outcome),
		Duration: c.Duration,
	}
	if c.Quotes.Pair.Base != nil {
		msg.Pair = c.Quotes.Pair.String()
	}
	if c.Err != nil {
		msg.Err = c.Err.Error()
	}

	for _, q := range c.Quotes.Quotes {
		msg.Quotes = append(msg.Quotes, components.VenueRow{
			Venue: q.Venue.String(),
			Price: q.Price.ToDecimal(),
			Pool:  q.Pool.Hex(),
		})
	}
	for _, f := range c.Quotes.Failures {
		msg.Quotes = append(msg.Quotes, components.VenueRow{
			Venue: f.Venue.String(),
			Err:   f.Err.Error(),
		})
	}

	d := c.Decision
	if d == nil {
		return msg
	}
	msg.Summary = &components.SpreadSummary{
		Cheap:     d.CheapVenue.String(),
		Rich:      d.RichVenue.String(),
		Spread:    d.Spread.ToDecimal(),
		MinSpread: d.MinSpread.ToDecimal(),
		Bps:       d.BasisPoints(),
		Act:       d.Act,
	}

	if !c.Acted() {
		return msg
	}
	row := &components.DecisionRow{
		Time:    c.StartedAt.Format("15:04:05"),
		Block:   c.Block,
		Route:   fmt.Sprintf("%s -> %s", d.CheapVenue, d.RichVenue),
		Spread:  d.Spread.ToDecimal(),
		Outcome: string(c.Outcome),
		Ok:      c.Outcome == app.OutcomeSubmitted || c.Outcome == app.OutcomeDryRun,
	}
	if c.Request != nil {
		req := c.Request
		row.Loan = decimal.NewFromBigInt(req.LoanAmount, -int32(req.LoanAssetDecimals)).String()
	}
	if c.Receipt != nil {
		row.TxHash = c.Receipt.TxHash.Hex()
	}
	msg.Decision = row
	return msg
}
