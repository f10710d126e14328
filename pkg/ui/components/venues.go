// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// VenueRow is one venue's latest quote. Err is set when the venue failed.
type VenueRow struct {
	Venue string
	Price decimal.Decimal
	Pool  string
	Err   string
}

// SpreadSummary is the decision for the displayed quotes, pre-computed by
// the domain.
type SpreadSummary struct {
	Cheap     string
	Rich      string
	Spread    decimal.Decimal
	MinSpread decimal.Decimal
	Bps       decimal.Decimal
	Act       bool
}

// VenuesComponent renders the per-venue price table.
type VenuesComponent struct {
	rows    []VenueRow
	pair    string
	block   uint64
	summary *SpreadSummary
}

// NewVenuesComponent creates a new venues component.
func NewVenuesComponent() *VenuesComponent {
	return &VenuesComponent{pair: "WETH-USDC"}
}

// Update replaces the table with the latest quotes.
func (v *VenuesComponent) Update(pair string, block uint64, rows []VenueRow, summary *SpreadSummary) {
	if pair != "" {
		v.pair = pair
	}
	v.block = block
	v.rows = rows
	v.summary = summary
}

// Rows returns the displayed rows.
func (v *VenuesComponent) Rows() []VenueRow {
	return v.rows
}

// View renders the venues component.
func (v *VenuesComponent) View() string {
	if len(v.rows) == 0 {
		return "Waiting for venue quotes..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	cheapStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	richStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	title := fmt.Sprintf("PRICES (%s)", v.pair)
	if v.block > 0 {
		title += fmt.Sprintf(" @ #%d", v.block)
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %-12s  %16s  %s\n", "Venue", "Price", ""))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 40)) + "\n")

	for _, row := range v.rows {
		if row.Err != "" {
			b.WriteString(fmt.Sprintf("  %-12s  %16s  %s\n", row.Venue, "-", errStyle.Render(truncate(row.Err, 40))))
			continue
		}

		tag, style := "", dimStyle
		if v.summary != nil && !v.summary.Spread.IsZero() {
			switch row.Venue {
			case v.summary.Cheap:
				tag, style = "cheap", cheapStyle
			case v.summary.Rich:
				tag, style = "rich", richStyle
			}
		}
		b.WriteString(fmt.Sprintf("  %-12s  %16s  %s\n", row.Venue, "$"+row.Price.StringFixed(6), style.Render(tag)))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 40)) + "\n")

	if s := v.summary; s != nil {
		spread := fmt.Sprintf("$%s (%s bps)", s.Spread.StringFixed(6), s.Bps.StringFixed(2))
		if s.Act {
			b.WriteString(fmt.Sprintf("  Spread: %s  > min $%s\n", cheapStyle.Render(spread), s.MinSpread.String()))
			b.WriteString(headerStyle.Render(fmt.Sprintf("  BUY %s / SELL %s", s.Cheap, s.Rich)) + "\n")
		} else {
			b.WriteString(fmt.Sprintf("  Spread: %s  <= min $%s\n", dimStyle.Render(spread), s.MinSpread.String()))
		}
	} else {
		b.WriteString(dimStyle.Render("  Need quotes from two venues") + "\n")
	}

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
