package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gwillem/odrive/pkg/odrive"
)

var (
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

type GetCommand struct {
	Type string `short:"t" long:"type" choice:"string" choice:"int" choice:"float" default:"string" description:"Parse the value as this type"`
	Args struct {
		Path string `positional-arg-name:"path" required:"yes"`
	} `positional-args:"yes"`
}

func (c *GetCommand) Execute(args []string) error {
	t, client, err := connect()
	if err != nil {
		return err
	}
	defer t.Close()

	var value string
	switch c.Type {
	case "int":
		n, err := client.GetParameterAsInt(appCtx, c.Args.Path)
		if err != nil {
			return err
		}
		value = fmt.Sprintf("%d", n)
	case "float":
		f, err := client.GetParameterAsFloat(appCtx, c.Args.Path)
		if err != nil {
			return err
		}
		value = fmt.Sprintf("%g", f)
	default:
		value, err = client.GetParameterAsString(appCtx, c.Args.Path)
		if err != nil {
			return err
		}
	}

	fmt.Printf("%s = %s\n", keyStyle.Render(c.Args.Path), valueStyle.Render(strings.TrimSpace(value)))
	return nil
}

type SetCommand struct {
	Save bool `long:"save" description:"Save configuration to flash afterwards"`
	Args struct {
		Path  string `positional-arg-name:"path" required:"yes"`
		Value string `positional-arg-name:"value" required:"yes"`
	} `positional-args:"yes"`
}

func (c *SetCommand) Execute(args []string) error {
	t, client, err := connect()
	if err != nil {
		return err
	}
	defer t.Close()

	if err := client.SetParameter(appCtx, c.Args.Path, c.Args.Value); err != nil {
		return err
	}
	if c.Save {
		return client.SaveConfiguration(appCtx)
	}
	return nil
}

type StateCommand struct {
	Request string        `short:"r" long:"request" description:"State to request, e.g. closed_loop_control or full_calibration_sequence"`
	Wait    bool          `short:"w" long:"wait" description:"Wait until the axis returns to idle"`
	Timeout time.Duration `long:"timeout" default:"30s" description:"Maximum time to wait with --wait"`
}

func (c *StateCommand) Execute(args []string) error {
	t, client, err := connect()
	if err != nil {
		return err
	}
	defer t.Close()

	axis := opts.Global.Axis
	if c.Request != "" {
		state, err := odrive.ParseAxisState(c.Request)
		if err != nil {
			return err
		}
		if err := client.RunState(appCtx, axis, state, c.Wait, c.Timeout); err != nil {
			return err
		}
	}

	state := client.GetState(appCtx, axis)
	fmt.Printf("%s %s (%d)\n", keyStyle.Render(odrive.CurrentStatePath(axis)), valueStyle.Render(state.String()), state.Int())
	return nil
}

type ClearCommand struct{}

func (c *ClearCommand) Execute(args []string) error {
	t, client, err := connect()
	if err != nil {
		return err
	}
	defer t.Close()

	client.ClearErrors(appCtx)
	return nil
}

type FeedbackCommand struct {
	Count    int           `short:"n" long:"count" default:"1" description:"Number of samples (0 = until interrupted)"`
	Interval time.Duration `short:"i" long:"interval" default:"100ms" description:"Time between samples"`
}

func (c *FeedbackCommand) Execute(args []string) error {
	t, client, err := connect()
	if err != nil {
		return err
	}
	defer t.Close()

	axis := opts.Global.Axis
	for i := 0; c.Count == 0 || i < c.Count; i++ {
		if i > 0 {
			select {
			case <-appCtx.Done():
				return nil
			case <-time.After(c.Interval):
			}
		}

		fb, err := client.GetFeedback(appCtx, axis)
		if err != nil {
			return err
		}
		if !fb.Valid() {
			fmt.Println(dimStyle.Render("no valid feedback"))
			continue
		}
		fmt.Printf("pos %s  vel %s\n",
			valueStyle.Render(fmt.Sprintf("%10.4f", fb.Pos)),
			valueStyle.Render(fmt.Sprintf("%10.4f", fb.Vel)))
	}
	return nil
}

type MoveCommand struct {
	VelocityFF float32 `long:"vel-ff" description:"Velocity feedforward"`
	TorqueFF   float32 `long:"torque-ff" description:"Torque feedforward"`
	Trap       bool    `long:"trap" description:"Use a trapezoidal trajectory (feedforward ignored)"`
	Args       struct {
		Position float32 `positional-arg-name:"position" required:"yes"`
	} `positional-args:"yes"`
}

func (c *MoveCommand) Execute(args []string) error {
	t, client, err := connect()
	if err != nil {
		return err
	}
	defer t.Close()

	axis := opts.Global.Axis
	if c.Trap {
		return client.TrapezoidalMove(appCtx, axis, c.Args.Position)
	}
	return client.SetPositionWithFeedforward(appCtx, axis, c.Args.Position, c.VelocityFF, c.TorqueFF)
}
