package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds cycle counters for display.
type Stats struct {
	Cycles    int64
	Acted     int64
	Submitted int64
	Reverted  int64
	Errors    int64
	totalTime time.Duration
}

// Record adds one cycle.
func (s *Stats) Record(d time.Duration, acted bool, outcome string, failed bool) {
	s.Cycles++
	s.totalTime += d
	if acted {
		s.Acted++
	}
	switch outcome {
	case "submitted":
		s.Submitted++
	case "reverted":
		s.Reverted++
	}
	if failed {
		s.Errors++
	}
}

// AvgLatency returns the mean cycle duration.
func (s Stats) AvgLatency() time.Duration {
	if s.Cycles == 0 {
		return 0
	}
	return s.totalTime / time.Duration(s.Cycles)
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Cycles: %s  │  Acted: %s  │  Submitted: %s  │  Reverted: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Cycles)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Acted)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Submitted)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Reverted)),
		) +
		fmt.Sprintf("Avg cycle: %s  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%dms", s.stats.AvgLatency().Milliseconds())),
			errorsDisplay,
		)
}
