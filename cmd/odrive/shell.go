package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ergochat/readline"

	"github.com/gwillem/odrive/pkg/odrive"
)

const shellHistoryFile = ".odrive_history"

var errorStyle = valueStyle.Foreground(lipgloss.Color("9"))

type ShellCommand struct{}

// expectsResponse reports whether a raw command line is answered by the ODrive.
func expectsResponse(line string) bool {
	cmd, _, _ := strings.Cut(line, " ")
	return cmd == odrive.CmdRead || cmd == odrive.CmdFeedback
}

func (c *ShellCommand) Execute(args []string) error {
	t, client, err := connect()
	if err != nil {
		return err
	}
	defer t.Close()

	home, _ := os.UserHomeDir()
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:                 "odrive> ",
		HistoryFile:            filepath.Join(home, shellHistoryFile),
		HistoryLimit:           500,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return fmt.Errorf("start shell: %w", err)
	}
	defer rl.Close()

	fmt.Println(dimStyle.Render("Connected to " + t.PortName() + ". Ctrl-D to exit."))

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rl.SaveToHistory(line)

		if !expectsResponse(line) {
			if err := client.SendRaw(appCtx, line); err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
			}
			continue
		}

		resp, err := client.Query(appCtx, line)
		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			continue
		}
		fmt.Println(valueStyle.Render(strings.TrimRight(resp, "\r")))
	}
}
