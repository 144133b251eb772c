package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/odrive/pkg/robot"
	"github.com/gwillem/odrive/pkg/teleop"
)

type TeleoperateCommand struct {
	Hz          int  `long:"hz" default:"60" description:"Control loop frequency"`
	Mirror      bool `long:"mirror" description:"Mirror mode: invert every follower axis"`
	MonitorOnly bool `long:"monitor-only" description:"Only chart the leader, do not command the follower"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Axis colors - distinct colors for each axis
var axisColors = map[robot.AxisName]string{
	robot.Axis0: "196", // red
	robot.Axis1: "51",  // cyan
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type teleopModel struct {
	ctrl        *teleop.Controller
	axes        []robot.AxisName
	chart       *streamlinechart.Model
	width       int // terminal width
	height      int // terminal height
	logs        []string
	quitting    bool
	lastSamples map[robot.AxisName]robot.Sample // previous samples, to detect movement
}

func (m *teleopModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement checks if any axis position has changed from the last state
func (m *teleopModel) hasMovement(samples map[robot.AxisName]robot.Sample) bool {
	if m.lastSamples == nil {
		return true
	}
	for name, s := range samples {
		if last, ok := m.lastSamples[name]; !ok || s.Position != last.Position {
			return true
		}
	}
	return false
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *teleopModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m *teleopModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialTeleopModel(ctrl *teleop.Controller, axes []robot.AxisName) teleopModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-100, 100),
	)

	for _, name := range axes {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(axisColor(name)))
		chart.SetDataSetStyles(string(name), runes.ThinLineStyle, style)
	}

	return teleopModel{
		ctrl:  ctrl,
		axes:  axes,
		chart: &chart,
	}
}

func axisColor(name robot.AxisName) string {
	if c, ok := axisColors[name]; ok {
		return c
	}
	return "226" // yellow
}

func (m teleopModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m teleopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		state := teleop.State(msg)
		if state.Samples != nil && m.hasMovement(state.Samples) {
			// Freeze the chart while the leader is idle
			for name, s := range state.Samples {
				m.chart.PushDataSet(string(name), s.Position)
			}
			m.chart.DrawAll()
			m.lastSamples = state.Samples
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m teleopModel) View() string {
	if m.quitting {
		return "Teleoperation stopped.\n"
	}

	var sb strings.Builder

	title := "ODrive Teleoperate"
	if m.ctrl.MonitorOnly() {
		title = "ODrive Monitor"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(m.renderLegend())
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20)).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m teleopModel) renderLegend() string {
	var items []string
	for _, name := range m.axes {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(axisColor(name))).Bold(true)
		item := colorStyle.Render("━━") + " " + string(name)
		if s, ok := m.lastSamples[name]; ok {
			item += statusStyle.Render(fmt.Sprintf(" %6.1f", s.Position))
		}
		items = append(items, item)
	}
	return strings.Join(items, "  ")
}

func (c *TeleoperateCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No configuration found. Run 'odrive setup' first.")
		os.Exit(1)
	}

	if cfg.Leader.Port == "" || (!c.MonitorOnly && cfg.Follower.Port == "") {
		fmt.Fprintln(os.Stderr, "Drives not configured. Run 'odrive setup' first.")
		os.Exit(1)
	}

	if !cfg.Leader.IsCalibrated() || (!c.MonitorOnly && !cfg.Follower.IsCalibrated()) {
		fmt.Fprintln(os.Stderr, "Drives not calibrated. Run 'odrive setup' first.")
		os.Exit(1)
	}

	fmt.Printf("Loaded configuration from %s\n", robot.DefaultConfigFile)

	// The TUI owns the terminal; info messages go to the log box instead
	logger := newLoggerAt(slog.LevelWarn)

	tcfg := teleop.Config{
		Leader: cfg.Leader,
		Hz:     c.Hz,
		Mirror: c.Mirror,
		Logger: logger,
	}
	if !c.MonitorOnly {
		tcfg.Follower = &cfg.Follower
	}

	ctrl, err := teleop.NewController(tcfg)
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(appCtx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("controller stopped", "error", err)
		}
	}()

	p := tea.NewProgram(initialTeleopModel(ctrl, cfg.Leader.Calibration.Axes()), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	// Let the controller idle the follower before the ports close
	cancel()
	<-done

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("run program: %w", runErr)
	}
	return nil
}
