package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	console "github.com/phsym/console-slog"

	"github.com/gwillem/odrive/pkg/odrive"
	"github.com/gwillem/odrive/pkg/robot"
	"github.com/gwillem/odrive/pkg/transports"
)

type GlobalOptions struct {
	Port    string `short:"p" long:"port" env:"ODRIVE_PORT" description:"Serial port (default: leader port from odrive.json)"`
	Baud    int    `short:"b" long:"baud" default:"115200" description:"Serial baud rate"`
	Axis    int    `short:"a" long:"axis" default:"0" description:"Axis index"`
	Verbose bool   `short:"v" long:"verbose" description:"Log every command and response"`
}

type Options struct {
	Global GlobalOptions `group:"Global Options"`

	Setup       SetupCommand       `command:"setup" description:"Scan for ODrives and calibrate their axes"`
	Teleoperate TeleoperateCommand `command:"teleoperate" alias:"monitor" description:"Start teleoperation (leader-follower control) or monitor the leader"`
	Get         GetCommand         `command:"get" description:"Read a parameter"`
	Set         SetCommand         `command:"set" description:"Write a parameter"`
	State       StateCommand       `command:"state" description:"Show or request the axis state"`
	Clear       ClearCommand       `command:"clear" description:"Clear errors"`
	Feedback    FeedbackCommand    `command:"feedback" description:"Print position and velocity estimates"`
	Move        MoveCommand        `command:"move" description:"Send a position setpoint"`
	Shell       ShellCommand       `command:"shell" description:"Interactive ASCII protocol shell"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

// appCtx is cancelled on SIGINT/SIGTERM.
var appCtx = context.Background()

func main() {
	parser.LongDescription = "ODrive - motor controller CLI for the ODrive ASCII protocol"

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	appCtx = ctx

	_, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if opts.Global.Verbose {
		level = slog.LevelDebug
	}
	return newLoggerAt(level)
}

func newLoggerAt(level slog.Level) *slog.Logger {
	return slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: level,
	}))
}

// resolvePort returns the --port flag or, failing that, the leader port
// from the config file.
func resolvePort() (string, error) {
	if opts.Global.Port != "" {
		return opts.Global.Port, nil
	}
	if robot.ConfigExists() {
		cfg, err := robot.LoadConfig()
		if err != nil {
			return "", err
		}
		if cfg.Leader.Port != "" {
			return cfg.Leader.Port, nil
		}
	}
	return "", transports.ErrNoPort
}

// connect opens the selected port and returns a client on it.
// The caller closes the transport.
func connect() (*transports.SerialTransport, *odrive.Client, error) {
	port, err := resolvePort()
	if err != nil {
		return nil, nil, err
	}

	t, err := transports.OpenSerial(transports.SerialConfig{
		Port:     port,
		BaudRate: opts.Global.Baud,
	})
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger().With("port", port)
	return t, odrive.NewClient(t, odrive.WithLogger(logger)), nil
}
