package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fd1az/flashloan-arbitrage/pkg/ui/components"
)

// ConnectionInfo holds connection state and latency.
type ConnectionInfo struct {
	Connected bool
	Latency   time.Duration
	LastSeen  time.Time
}

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

var startupOrder = []string{"config", "rpc", "blocks", "venues"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	venues    *components.VenuesComponent
	decisions *components.DecisionsComponent
	stats     *components.StatsComponent
	keys      KeyMap
	help      help.Model

	phase        Phase
	welcomeStart time.Time

	ready           bool
	quitting        bool
	paused          bool
	width           int
	height          int
	currentBlock    uint64
	connectionState map[string]*ConnectionInfo
	lastUpdate      time.Time
	errors          []ErrorEntry // last 3
	logs            []string

	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time

	counters     components.Stats
	activityFeed []string
	lastScanTime time.Time
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		venues:       components.NewVenuesComponent(),
		decisions:    components.NewDecisionsComponent(50),
		stats:        components.NewStatsComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		connectionState: map[string]*ConnectionInfo{
			"rpc":    {Connected: false},
			"blocks": {Connected: false},
		},
		logs:         make([]string, 0, 10),
		errors:       make([]ErrorEntry, 0, 3),
		activityFeed: make([]string, 0, 8),
		startupSteps: map[string]*StartupStep{
			"config": {Name: "Loading configuration", Status: "pending"},
			"rpc":    {Name: "Connecting to Polygon RPC", Status: "pending"},
			"blocks": {Name: "Subscribing to new blocks", Status: "pending"},
			"venues": {Name: "Quoting venues", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) leaveWelcome() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Update must not call Send, so trigger the callback directly.
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			m.leaveWelcome()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.decisions.Clear()
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Up):
			m.decisions.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.decisions.ScrollDown()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, 3)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.leaveWelcome()
		}
		return m, tickCmd()

	case CycleMsg:
		m.counters.Record(msg.Duration, msg.Decision != nil, msg.Outcome, msg.Err != "")
		m.stats.Update(m.counters)
		m.lastScanTime = time.Now()
		m.lastUpdate = m.lastScanTime

		if len(msg.Quotes) > 0 {
			if step := m.startupSteps["venues"]; step != nil {
				step.Status = "done"
			}
			m.startupComplete = true
		}
		if msg.Block > m.currentBlock {
			m.currentBlock = msg.Block
		}

		// A paused dashboard keeps counting but freezes the panels.
		if m.paused {
			break
		}
		m.venues.Update(msg.Pair, msg.Block, msg.Quotes, msg.Summary)
		if msg.Decision != nil {
			m.decisions.Add(*msg.Decision)
		}
		m.activityFeed = addActivity(m.activityFeed, describeCycle(msg))

	case ConnectionStatusMsg:
		m.connectionState[msg.Name] = &ConnectionInfo{
			Connected: msg.Connected,
			Latency:   msg.Latency,
			LastSeen:  time.Now(),
		}
		m.lastUpdate = time.Now()
		if step, ok := m.startupSteps[msg.Name]; ok {
			if msg.Connected {
				step.Status = "connected"
			} else if step.Status == "pending" {
				step.Status = "connecting"
			}
		}

	case BlockMsg:
		m.currentBlock = msg.Number
		m.lastUpdate = time.Now()
		m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("Block #%d received", msg.Number))

	case ErrorMsg:
		if msg.Error == nil {
			break
		}
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		if msg.Status == "failed" && msg.Message != "" {
			m.logs = addLog(m.logs, "error", msg.Message)
		}
		all := true
		for _, step := range m.startupSteps {
			if step.Status != "connected" && step.Status != "done" {
				all = false
				break
			}
		}
		if all {
			m.startupComplete = true
		}
	}

	if m.phase == PhaseStartup && (m.startupComplete || m.currentBlock > 0) {
		m.phase = PhaseDashboard
	}
	return m, nil
}

func describeCycle(msg CycleMsg) string {
	prefix := ""
	if msg.Block > 0 {
		prefix = fmt.Sprintf("#%d ", msg.Block)
	}
	switch {
	case msg.Summary == nil:
		return prefix + fmt.Sprintf("%d venue(s) quoted, no decision", len(msg.Quotes))
	case msg.Decision != nil:
		return prefix + fmt.Sprintf("%s -> %s spread $%s: %s",
			msg.Summary.Cheap, msg.Summary.Rich, msg.Summary.Spread.StringFixed(4), msg.Outcome)
	default:
		return prefix + fmt.Sprintf("spread $%s below threshold", msg.Summary.Spread.StringFixed(4))
	}
}

// addLog keeps the last 5 log lines.
func addLog(logs []string, level, message string) []string {
	line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), level, message)
	logs = append(logs, line)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// addActivity keeps the last 6 activity lines.
func addActivity(feed []string, message string) []string {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message)
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" ⚡ Flash Loan Arbitrage "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.venues.View() + "\n\n" + m.stats.View()
	rightCol := m.renderActivityFeed() + "\n\n" + m.decisions.View()

	if m.width > 100 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := m.width - 4
		if width < 40 {
			width = 40
		}
		b.WriteString(BoxStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(rightCol))
	}
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(StatusReconnecting.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderActivityFeed() string {
	blockStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))

	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("LIVE ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(MutedValue.Render("  Waiting for the first cycle..."))
		return sb.String()
	}
	for _, activity := range m.activityFeed {
		if strings.Contains(activity, "Block #") {
			sb.WriteString(blockStyle.Render("  " + activity))
		} else {
			sb.WriteString(MutedValue.Render("  " + activity))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	goldStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ███████╗██╗      █████╗ ███████╗██╗  ██╗
   ██╔════╝██║     ██╔══██╗██╔════╝██║  ██║
   █████╗  ██║     ███████║███████╗███████║
   ██╔══╝  ██║     ██╔══██║╚════██║██╔══██║
   ██║     ███████╗██║  ██║███████║██║  ██║
   ╚═╝     ╚══════╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("        L O A N   A R B I T R A G E"))
	sb.WriteString("\n\n\n")
	sb.WriteString(goldStyle.Render("      WETH/USDC across Polygon DEXes"))
	sb.WriteString("\n\n\n")
	sb.WriteString(PositiveValue.Render(fmt.Sprintf("            Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("      Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  ⚡ Flash Loan Arbitrage"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range startupOrder {
		step, ok := m.startupSteps[k]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon, statusText, style = "✓", "Ready", StatusConnected
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon, statusText, style = spinners[idx], "Connecting...", StatusReconnecting
		case "failed":
			icon, statusText, style = "✗", "Failed", StatusDisconnected
		default:
			icon, statusText, style = "○", "Pending", MutedValue
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			MutedValue.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")

	for _, line := range m.logs {
		sb.WriteString(MutedValue.Render("  " + line))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if time.Since(m.lastScanTime) < 500*time.Millisecond {
		spinners := []string{"⟳", "◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/100) % len(spinners)
		parts = append(parts, StatusConnected.Render(spinners[idx]+" Scanning"))
	}

	parts = append(parts, fmt.Sprintf("Block: #%d", m.currentBlock))

	if m.counters.Cycles > 0 {
		parts = append(parts, PositiveValue.Render(fmt.Sprintf("Cycles: %d", m.counters.Cycles)))
	}

	// Map iteration order is random; keep the bar stable.
	names := make([]string, 0, len(m.connectionState))
	for name := range m.connectionState {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		info := m.connectionState[name]
		if info != nil && info.Connected {
			status := name
			if info.Latency > 0 {
				status = fmt.Sprintf("%s (%dms)", name, info.Latency.Milliseconds())
			}
			parts = append(parts, StatusConnected.Render("● "+status))
		} else {
			parts = append(parts, StatusDisconnected.Render("○ "+name+" (disconnected)"))
		}
	}

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		indicator := ""
		if ago < 2*time.Second {
			indicator = "▪"
		}
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago %s", ago, indicator)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
var OnStartModules func()

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
