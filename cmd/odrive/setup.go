package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/odrive/pkg/odrive"
	"github.com/gwillem/odrive/pkg/robot"
	"github.com/gwillem/odrive/pkg/transports"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	probeTimeout    = time.Second
	calibrationTick = 100 * time.Millisecond
	minGoodRange    = 0.5 // turns
)

type SetupCommand struct {
	MonitorOnly bool `long:"monitor-only" description:"Only configure a leader drive"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("ODrive Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	// Step 1: Scan for drives
	config := scanForDrives(c.MonitorOnly)

	// Step 2: Calibrate leader
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Calibrating Leader Drive ━━━"))
	fmt.Println()
	calibrateDrive(&config.Leader, "Leader")

	// Save after leader calibration
	if err := config.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	// Step 3: Calibrate follower
	if !c.MonitorOnly {
		fmt.Println()
		fmt.Println(subHeaderStyle.Render("━━━ Calibrating Follower Drive ━━━"))
		fmt.Println()
		calibrateDrive(&config.Follower, "Follower")

		if err := config.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", robot.DefaultConfigFile)
	fmt.Println()
	if c.MonitorOnly {
		fmt.Println("Start monitoring with: " + headerStyle.Render("odrive teleoperate --monitor-only"))
	} else {
		fmt.Println("Start teleoperation with: " + headerStyle.Render("odrive teleoperate"))
	}

	return nil
}

type driveInfo struct {
	port     string
	firmware string
	serial   string
}

func (d driveInfo) label() string {
	return fmt.Sprintf("%s (fw %s, serial %s)", d.port, d.firmware, d.serial)
}

func scanForDrives(monitorOnly bool) *robot.Config {
	fmt.Println("Scanning for ODrives...")
	fmt.Println()

	drives := findDrives()

	need := 2
	if monitorOnly {
		need = 1
	}
	if len(drives) < need {
		fmt.Printf("Found %d ODrive(s), need %d.\n", len(drives), need)
		fmt.Println("Make sure your drives are connected over USB and powered on.")
		os.Exit(1)
	}

	fmt.Printf("Found %d drive(s).\n\n", len(drives))

	leader := selectDrive("Which drive is the leader?", "The one you move by hand", drives, "")
	config := &robot.Config{
		Leader: robot.DriveConfig{Port: leader},
	}

	if !monitorOnly {
		follower := selectDrive("Which drive is the follower?", "The one that follows", drives, leader)
		config.Follower = robot.DriveConfig{Port: follower}
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Drives identified:"))
	fmt.Printf("  Leader:   %s\n", config.Leader.Port)
	if !monitorOnly {
		fmt.Printf("  Follower: %s\n", config.Follower.Port)
	}

	return config
}

func selectDrive(title, description string, drives []driveInfo, exclude string) string {
	var options []huh.Option[string]
	for _, d := range drives {
		if d.port == exclude {
			continue
		}
		options = append(options, huh.NewOption(d.label(), d.port))
	}

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Description(description).
				Options(options...).
				Value(&port),
		),
	)

	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port
}

func findDrives() []driveInfo {
	ports, err := transports.Ports()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var drives []driveInfo
	for _, port := range ports {
		info, err := probeDrive(port)
		if err != nil {
			continue
		}
		fmt.Printf("  Found ODrive on %s\n", port)
		drives = append(drives, info)
	}
	return drives
}

// probeDrive asks a port for its firmware version. Anything that does not
// answer with a number in time is not an ODrive.
func probeDrive(port string) (driveInfo, error) {
	t, err := transports.OpenSerial(transports.SerialConfig{Port: port})
	if err != nil {
		return driveInfo{}, err
	}
	defer t.Close()

	ctx, cancel := context.WithTimeout(appCtx, probeTimeout)
	defer cancel()

	client := odrive.NewClient(t)
	var version [3]int64
	for i, part := range []string{"fw_version_major", "fw_version_minor", "fw_version_revision"} {
		if version[i], err = client.GetParameterAsInt(ctx, part); err != nil {
			return driveInfo{}, err
		}
	}

	serial, err := client.GetParameterAsString(ctx, "serial_number")
	if err != nil {
		return driveInfo{}, err
	}

	return driveInfo{
		port:     port,
		firmware: fmt.Sprintf("%d.%d.%d", version[0], version[1], version[2]),
		serial:   strings.TrimSpace(serial),
	}, nil
}

func calibrateDrive(cfg *robot.DriveConfig, name string) {
	fmt.Printf("Calibrating %s drive on %s\n", strings.ToLower(name), cfg.Port)
	fmt.Println()

	t, err := transports.OpenSerial(transports.SerialConfig{Port: cfg.Port, BaudRate: cfg.BaudRate})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to drive: %v\n", err)
		os.Exit(1)
	}
	defer t.Close()

	client := odrive.NewClient(t, odrive.WithLogger(newLogger().With("port", cfg.Port)))

	// Idle all axes so the user can move them freely
	axes := robot.AllAxes()
	for i := range axes {
		if err := client.SetState(appCtx, i, odrive.AxisStateIdle); err != nil {
			fmt.Fprintf(os.Stderr, "Error idling axis %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	waitForUser("Make sure every axis can turn freely, then continue.")

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Turn each axis to its minimum AND maximum positions.")
	fmt.Println()

	model := newCalibrationModel(client, axes)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}

	cm := finalModel.(calibrationModel)
	calibration := make(robot.Calibration)
	for i, axis := range axes {
		if !cm.seen[axis] {
			fmt.Println(dimStyle.Render(fmt.Sprintf("  %s: no feedback, skipped", axis)))
			continue
		}
		calibration[axis] = robot.AxisCalibration{
			Axis:     i,
			RangeMin: cm.minPositions[axis],
			RangeMax: cm.maxPositions[axis],
		}
	}

	cfg.Calibration = calibration
	fmt.Println()
	fmt.Printf("%s drive calibrated.\n", name)
}

func waitForUser(prompt string) {
	fmt.Println(prompt)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("").
				Affirmative("Continue").
				Negative("").
				Value(new(bool)),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
}

// Calibration TUI model
type calibrationModel struct {
	client       *odrive.Client
	axes         []robot.AxisName
	seen         map[robot.AxisName]bool
	curPositions map[robot.AxisName]float64
	minPositions map[robot.AxisName]float64
	maxPositions map[robot.AxisName]float64
	quitting     bool
}

type tickMsg time.Time

func newCalibrationModel(client *odrive.Client, axes []robot.AxisName) calibrationModel {
	return calibrationModel{
		client:       client,
		axes:         axes,
		seen:         make(map[robot.AxisName]bool),
		curPositions: make(map[robot.AxisName]float64),
		minPositions: make(map[robot.AxisName]float64),
		maxPositions: make(map[robot.AxisName]float64),
	}
}

func tick() tea.Cmd {
	return tea.Tick(calibrationTick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

// record folds one position reading into the tracked range.
func (m calibrationModel) record(axis robot.AxisName, pos float64) {
	m.curPositions[axis] = pos
	if !m.seen[axis] {
		m.seen[axis] = true
		m.minPositions[axis] = pos
		m.maxPositions[axis] = pos
		return
	}
	m.minPositions[axis] = min(m.minPositions[axis], pos)
	m.maxPositions[axis] = max(m.maxPositions[axis], pos)
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		for i, axis := range m.axes {
			fb, err := m.client.GetFeedback(appCtx, i)
			if err != nil || !fb.Valid() {
				continue
			}
			m.record(axis, float64(fb.Pos))
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	// Table styles
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableAxisStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.axes))
	ranges := make([]float64, 0, len(m.axes))
	for _, axis := range m.axes {
		if !m.seen[axis] {
			ranges = append(ranges, 0)
			rows = append(rows, []string{string(axis), "-", "-", "-", "-"})
			continue
		}
		rangeSize := m.maxPositions[axis] - m.minPositions[axis]
		ranges = append(ranges, rangeSize)
		rows = append(rows, []string{
			string(axis),
			fmt.Sprintf("%.3f", m.curPositions[axis]),
			fmt.Sprintf("%.3f", m.minPositions[axis]),
			fmt.Sprintf("%.3f", m.maxPositions[axis]),
			fmt.Sprintf("%.3f", rangeSize),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Axis", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableAxisStyle
			case 1:
				return tableCurrentStyle
			case 4:
				if row >= 0 && row < len(ranges) && ranges[row] > minGoodRange {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))

	return sb.String()
}
