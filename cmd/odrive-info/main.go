package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/odrive/pkg/odrive"
	"github.com/gwillem/odrive/pkg/robot"
	"github.com/gwillem/odrive/pkg/transports"
)

const probeTimeout = 2 * time.Second

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type driveReport struct {
	port     string
	firmware string
	serial   string
	vbus     string
	states   []string
}

func main() {
	fmt.Println(headerStyle.Render("ODrive Port Scanner"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	ports, err := transports.Ports()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		os.Exit(1)
	}

	var reports []driveReport
	for _, port := range ports {
		r, err := inspect(port)
		if err != nil {
			fmt.Println(dimStyle.Render(fmt.Sprintf("  %s: %v", port, err)))
			continue
		}
		reports = append(reports, r)
	}

	fmt.Println()
	if len(reports) == 0 {
		fmt.Println("No ODrives found.")
		fmt.Println("Make sure your drives are connected over USB and powered on.")
		os.Exit(1)
	}

	fmt.Println(render(reports))
}

// inspect reads identification and status values from the drive on port.
func inspect(port string) (driveReport, error) {
	t, err := transports.OpenSerial(transports.SerialConfig{Port: port})
	if err != nil {
		return driveReport{}, err
	}
	defer t.Close()

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	client := odrive.NewClient(t)

	var version []string
	for _, path := range []string{"fw_version_major", "fw_version_minor", "fw_version_revision"} {
		n, err := client.GetParameterAsInt(ctx, path)
		if err != nil {
			return driveReport{}, fmt.Errorf("not an ODrive: %w", err)
		}
		version = append(version, fmt.Sprint(n))
	}

	r := driveReport{
		port:     port,
		firmware: strings.Join(version, "."),
		serial:   "?",
		vbus:     "?",
	}

	if s, err := client.GetParameterAsString(ctx, "serial_number"); err == nil {
		r.serial = strings.TrimSpace(s)
	}
	if v, err := client.GetParameterAsFloat(ctx, "vbus_voltage"); err == nil {
		r.vbus = fmt.Sprintf("%.1f V", v)
	}
	for i := range robot.AllAxes() {
		r.states = append(r.states, client.GetState(ctx, i).String())
	}

	return r, nil
}

func render(reports []driveReport) string {
	headers := []string{"Port", "Firmware", "Serial", "Vbus"}
	for _, name := range robot.AllAxes() {
		headers = append(headers, string(name))
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		row := []string{r.port, r.firmware, r.serial, r.vbus}
		rows = append(rows, append(row, r.states...))
	}

	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Render()
}
