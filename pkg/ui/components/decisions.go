package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// DecisionRow is an acting decision and what became of it.
type DecisionRow struct {
	Time    string
	Block   uint64
	Route   string // e.g. "quickswap -> sushiswap"
	Spread  decimal.Decimal
	Loan    string
	Outcome string
	TxHash  string
	Ok      bool
}

// DecisionsComponent renders the list of acting decisions, newest first.
type DecisionsComponent struct {
	rows    []DecisionRow
	maxRows int
	offset  int
	visible int
}

// NewDecisionsComponent creates a new decisions component.
func NewDecisionsComponent(maxRows int) *DecisionsComponent {
	return &DecisionsComponent{maxRows: maxRows, visible: 8}
}

// Add prepends a decision.
func (d *DecisionsComponent) Add(row DecisionRow) {
	d.rows = append([]DecisionRow{row}, d.rows...)
	if len(d.rows) > d.maxRows {
		d.rows = d.rows[:d.maxRows]
	}
	d.offset = 0
}

// Len returns the number of stored decisions.
func (d *DecisionsComponent) Len() int {
	return len(d.rows)
}

// Clear clears all decisions.
func (d *DecisionsComponent) Clear() {
	d.rows = nil
	d.offset = 0
}

// ScrollUp moves the window towards newer rows.
func (d *DecisionsComponent) ScrollUp() {
	if d.offset > 0 {
		d.offset--
	}
}

// ScrollDown moves the window towards older rows.
func (d *DecisionsComponent) ScrollDown() {
	if d.offset+d.visible < len(d.rows) {
		d.offset++
	}
}

// View renders the decisions component.
func (d *DecisionsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("FLASH LOANS (%d)", len(d.rows))))
	b.WriteString("\n\n")

	if len(d.rows) == 0 {
		b.WriteString(dimStyle.Render("  No spread above the threshold yet..."))
		return b.String()
	}

	end := d.offset + d.visible
	if end > len(d.rows) {
		end = len(d.rows)
	}
	for _, row := range d.rows[d.offset:end] {
		icon, style := "✓", okStyle
		if !row.Ok {
			icon, style = "✗", badStyle
		}
		b.WriteString(fmt.Sprintf("  %s #%-9d %-24s $%-10s %-6s %s\n",
			dimStyle.Render(row.Time),
			row.Block,
			row.Route,
			row.Spread.StringFixed(4),
			row.Loan,
			style.Render(icon+" "+row.Outcome),
		))
		if row.TxHash != "" {
			b.WriteString(dimStyle.Render("    tx "+row.TxHash) + "\n")
		}
	}
	if len(d.rows) > d.visible {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  showing %d-%d of %d", d.offset+1, end, len(d.rows))))
	}
	return b.String()
}
