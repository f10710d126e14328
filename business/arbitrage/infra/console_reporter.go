// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fd1az/flashloan-arbitrage/business/arbitrage/app"
)

const rule = "================================================================================"

// ConsoleReporter implements app.Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewConsoleReporter creates a ConsoleReporter writing to out, or stdout
// when out is nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out, now: time.Now}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "Flash Loan Arbitrage Started")
	fmt.Fprintln(r.out, "============================")
	return nil
}

// ReportCycle prints the venue prices and the biggest difference for every
// cycle, and the flash loan details when the spread was acted on.
func (r *ConsoleReporter) ReportCycle(c *app.Cycle) {
	if c == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pair := c.Quotes.Pair
	for _, q := range c.Quotes.Quotes {
		fmt.Fprintf(r.out, "Price of %s: %s for %s\n", pair.Base, q.Price.StringFixed(6), q.Venue)
	}
	for _, f := range c.Quotes.Failures {
		fmt.Fprintf(r.out, "Quote failed for %s: %v\n", f.Venue, f.Err)
	}

	if c.Decision == nil {
		fmt.Fprintf(r.out, "Not enough quotes to compare (%d)\n", len(c.Quotes.Quotes))
		return
	}

	d := c.Decision
	fmt.Fprintf(r.out, "Biggest price difference: %s\n", d.Spread.ToDecimal().StringFixed(6))
	if !c.Acted() {
		return
	}

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "ARBITRAGE OPPORTUNITY")
	fmt.Fprintln(r.out, rule)
	if c.Block > 0 {
		fmt.Fprintf(r.out, "Block:          #%d\n", c.Block)
	}
	fmt.Fprintf(r.out, "Timestamp:      %s\n", c.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Pair:           %s\n", d.Pair.String())
	fmt.Fprintf(r.out, "Cheap:          %s @ %s\n", d.CheapVenue, d.CheapPrice.StringFixed(6))
	fmt.Fprintf(r.out, "Rich:           %s @ %s\n", d.RichVenue, d.RichPrice.StringFixed(6))
	fmt.Fprintf(r.out, "Spread:         %s (%s bps, min %s)\n",
		d.Spread.StringFixed(6), d.BasisPoints().StringFixed(2), d.MinSpread.StringFixed(2))

	if req := c.Request; req != nil {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "FLASH LOAN")
		fmt.Fprintf(r.out, "  Pool:           %s\n", req.Pool.Hex())
		fmt.Fprintf(r.out, "  Loan:           %s wei of %s\n", req.LoanAmount.String(), req.LoanAsset.Hex())
		for i, h := range req.Hops {
			fmt.Fprintf(r.out, "  Hop %d:          %s (protocol %d) %s -> %s via %s\n",
				i+1, h.Venue, h.Protocol, h.In().Hex(), h.Out().Hex(), h.Router.Hex())
		}
		fmt.Fprintf(r.out, "  Gas:            %d @ %s wei\n", req.GasLimit, req.GasPrice.String())
	}

	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintf(r.out, "Outcome:        %s\n", c.Outcome)
	if c.Receipt != nil {
		fmt.Fprintf(r.out, "Transaction:    %s (block %s, gas used %d)\n",
			c.Receipt.TxHash.Hex(), c.Receipt.BlockNumber, c.Receipt.GasUsed)
	}
	if c.Err != nil {
		fmt.Fprintf(r.out, "Error:          %v\n", c.Err)
	}
	fmt.Fprintln(r.out, rule)
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency)
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", r.now().Format("15:04:05"), name, status)
}

// Stop prints the closing line.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Flash Loan Arbitrage Stopped")
	return nil
}
