package odrive

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/odrive/pkg/transports"
)

// replyTo answers a single command line with a fixed response.
func replyTo(cmd, reply string) func(string) string {
	return func(got string) string {
		if got == cmd {
			return reply
		}
		return ""
	}
}

func TestClient_ClearErrors(t *testing.T) {
	mock := transports.NewMockTransport()
	c := NewClient(mock)

	c.ClearErrors(context.Background())

	assert.Equal(t, []string{"sc\n"}, mock.Written())
	assert.Equal(t, 0, mock.ReadCount())
}

func TestClient_ClearErrors_WriteFailureSwallowed(t *testing.T) {
	mock := &transports.MockTransport{WriteErr: errors.New("port gone")}
	c := NewClient(mock)

	assert.NotPanics(t, func() { c.ClearErrors(context.Background()) })
	assert.Equal(t, 0, mock.ReadCount())
}

func TestClient_SetPosition(t *testing.T) {
	tests := []struct {
		axis int
		pos  float32
		want string
	}{
		{0, 0, "p 0 0 0 0\n"},
		{0, 1.5, "p 0 1.5 0 0\n"},
		{1, -2.25, "p 1 -2.25 0 0\n"},
		{3, 0.1, "p 3 0.1 0 0\n"},
		{-1, 100, "p -1 100 0 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			mock := transports.NewMockTransport()
			c := NewClient(mock)

			require.NoError(t, c.SetPosition(context.Background(), tt.axis, tt.pos))
			assert.Equal(t, []string{tt.want}, mock.Written())
			assert.Equal(t, 0, mock.ReadCount())
		})
	}
}

func TestClient_SetPositionOverloads(t *testing.T) {
	mock := transports.NewMockTransport()
	c := NewClient(mock)
	ctx := context.Background()

	require.NoError(t, c.SetPositionWithVelocity(ctx, 0, 1, 2))
	require.NoError(t, c.SetPositionWithFeedforward(ctx, 1, 1, 2, 3))

	assert.Equal(t, []string{"p 0 1 2 0\n", "p 1 1 2 3\n"}, mock.Written())
	assert.Equal(t, 0, mock.ReadCount())
}

func TestClient_MotionCommands(t *testing.T) {
	mock := transports.NewMockTransport()
	c := NewClient(mock)
	ctx := context.Background()

	require.NoError(t, c.SetVelocity(ctx, 0, 2, 0.5))
	require.NoError(t, c.SetTorque(ctx, 1, -0.25))
	require.NoError(t, c.TrapezoidalMove(ctx, 0, 10))
	require.NoError(t, c.SaveConfiguration(ctx))
	require.NoError(t, c.EraseConfiguration(ctx))
	require.NoError(t, c.Reboot(ctx))

	assert.Equal(t, []string{
		"v 0 2 0.5\n",
		"c 1 -0.25\n",
		"t 0 10\n",
		"ss\n",
		"se\n",
		"sr\n",
	}, mock.Written())
	assert.Equal(t, 0, mock.ReadCount())
}

func TestClient_WriteError(t *testing.T) {
	mock := &transports.MockTransport{WriteErr: errors.New("port gone")}
	c := NewClient(mock)

	err := c.SetPosition(context.Background(), 0, 1)
	require.Error(t, err)
	assert.True(t, IsCommError(err))
}

func TestClient_CanceledContextWritesNothing(t *testing.T) {
	mock := transports.NewMockTransport()
	c := NewClient(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.SetPosition(ctx, 0, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, mock.Written())
}

func TestClient_GetFeedback(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Feedback
		valid bool
	}{
		{"two values", "1.5 -2.25\n", Feedback{Pos: 1.5, Vel: -2.25}, true},
		{"carriage return", "0.5 4\r\n", Feedback{Pos: 0.5, Vel: 4}, true},
		{"no space", "1.5\n", Feedback{}, false},
		{"extra fields", "1 2 3\n", Feedback{}, false},
		{"garbage", "invalid command format\n", Feedback{}, false},
		{"empty", "\n", Feedback{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := transports.NewMockTransport()
			mock.Respond = replyTo("f 0\n", tt.reply)
			c := NewClient(mock)

			fb, err := c.GetFeedback(context.Background(), 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"f 0\n"}, mock.Written())

			if !tt.valid {
				assert.False(t, fb.Valid())
				assert.True(t, math.IsNaN(float64(fb.Pos)))
				assert.True(t, math.IsNaN(float64(fb.Vel)))
				return
			}
			assert.True(t, fb.Valid())
			assert.Equal(t, tt.want, fb)
		})
	}
}

func TestClient_GetFeedback_FlushesStaleInput(t *testing.T) {
	mock := transports.NewMockTransport("9 9\n")
	mock.Respond = replyTo("f 1\n", "1 2\n")
	c := NewClient(mock)

	fb, err := c.GetFeedback(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Feedback{Pos: 1, Vel: 2}, fb)
}

func TestClient_GetFeedback_CommunicationFailure(t *testing.T) {
	mock := transports.NewMockTransport()
	c := NewClient(mock)

	fb, err := c.GetFeedback(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, IsCommError(err))
	assert.False(t, fb.Valid())
}

func TestClient_GetPositionAndVelocity(t *testing.T) {
	mock := transports.NewMockTransport()
	mock.Respond = replyTo("f 0\n", "3.5 -1\n")
	c := NewClient(mock)
	ctx := context.Background()

	pos, err := c.GetPosition(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), pos)

	vel, err := c.GetVelocity(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(-1), vel)
}

func TestClient_GetParameterAsString(t *testing.T) {
	mock := transports.NewMockTransport()
	mock.Respond = replyTo("r vbus_voltage\n", " 24.1 \r\n")
	c := NewClient(mock)

	s, err := c.GetParameterAsString(context.Background(), "vbus_voltage")
	require.NoError(t, err)
	assert.Equal(t, " 24.1 \r", s)
}

func TestClient_GetParameterAsInt(t *testing.T) {
	mock := transports.NewMockTransport()
	mock.Respond = replyTo("r axis0.error\n", "42\n")
	c := NewClient(mock)

	n, err := c.GetParameterAsInt(context.Background(), "axis0.error")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestClient_GetParameterAsInt_Malformed(t *testing.T) {
	mock := transports.NewMockTransport()
	mock.Respond = replyTo("r axis0.error\n", "abc\n")
	c := NewClient(mock)

	_, err := c.GetParameterAsInt(context.Background(), "axis0.error")
	require.Error(t, err)
	assert.True(t, IsParseError(err))

	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "axis0.error", parseErr.Path)
	assert.Equal(t, "abc", parseErr.Value)
}

func TestClient_GetParameterAsFloat(t *testing.T) {
	mock := transports.NewMockTransport()
	mock.Respond = func(cmd string) string {
		switch cmd {
		case "r vbus_voltage\n":
			return "24.5\r\n"
		case "r axis0.motor.current_control.Iq_measured\n":
			return "n/a\n"
		}
		return ""
	}
	c := NewClient(mock)
	ctx := context.Background()

	v, err := c.GetParameterAsFloat(ctx, "vbus_voltage")
	require.NoError(t, err)
	assert.Equal(t, float32(24.5), v)

	_, err = c.GetParameterAsFloat(ctx, "axis0.motor.current_control.Iq_measured")
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestClient_SetParameter(t *testing.T) {
	mock := transports.NewMockTransport()
	c := NewClient(mock)
	ctx := context.Background()

	require.NoError(t, c.SetParameter(ctx, "axis0.controller.config.vel_limit", "7"))
	require.NoError(t, c.SetParameterInt(ctx, "axis0.controller.config.vel_limit", 7))

	written := mock.Written()
	require.Len(t, written, 2)
	assert.Equal(t, "w axis0.controller.config.vel_limit 7\n", written[0])
	assert.Equal(t, written[0], written[1])
	assert.Equal(t, 0, mock.ReadCount())
}

func TestClient_SetState(t *testing.T) {
	mock := transports.NewMockTransport()
	c := NewClient(mock)

	require.NoError(t, c.SetState(context.Background(), 1, AxisStateClosedLoopControl))
	assert.Equal(t, []string{"w axis1.requested_state 8\n"}, mock.Written())
}

func TestClient_GetState(t *testing.T) {
	tests := []struct {
		reply string
		want  AxisState
	}{
		{"8\n", AxisStateClosedLoopControl},
		{"1\r\n", AxisStateIdle},
		{"5\n", AxisStateUndefined},
		{"abc\n", AxisStateUndefined},
		{"99999999999999999999\n", AxisStateUndefined},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.reply), func(t *testing.T) {
			mock := transports.NewMockTransport()
			mock.Respond = replyTo("r axis0.current_state\n", tt.reply)
			c := NewClient(mock)

			assert.Equal(t, tt.want, c.GetState(context.Background(), 0))
		})
	}
}

func TestClient_GetState_CommunicationFailure(t *testing.T) {
	mock := transports.NewMockTransport()
	c := NewClient(mock)

	assert.Equal(t, AxisStateUndefined, c.GetState(context.Background(), 0))
}

// stateEcho makes current_state report whatever was last requested.
func stateEcho() func(string) string {
	requested := "0"
	return func(cmd string) string {
		if v, ok := strings.CutPrefix(cmd, "w axis0.requested_state "); ok {
			requested = strings.TrimSuffix(v, "\n")
			return ""
		}
		if cmd == "r axis0.current_state\n" {
			return requested + "\n"
		}
		return ""
	}
}

func TestClient_StateRoundTrip(t *testing.T) {
	for _, s := range AllAxisStates() {
		t.Run(s.String(), func(t *testing.T) {
			mock := transports.NewMockTransport()
			mock.Respond = stateEcho()
			c := NewClient(mock)
			ctx := context.Background()

			require.NoError(t, c.SetState(ctx, 0, s))
			assert.Equal(t, s, c.GetState(ctx, 0))
		})
	}
}

func TestClient_RunState(t *testing.T) {
	mock := transports.NewMockTransport()
	mock.Respond = replyTo("r axis0.current_state\n", "1\n")
	c := NewClient(mock)

	err := c.RunState(context.Background(), 0, AxisStateFullCalibrationSequence, true, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "w axis0.requested_state 3\n", mock.Written()[0])
}

func TestClient_RunState_NoWait(t *testing.T) {
	mock := transports.NewMockTransport()
	c := NewClient(mock)

	require.NoError(t, c.RunState(context.Background(), 0, AxisStateClosedLoopControl, false, 0))
	assert.Equal(t, []string{"w axis0.requested_state 8\n"}, mock.Written())
	assert.Equal(t, 0, mock.ReadCount())
}

func TestClient_RunState_Timeout(t *testing.T) {
	mock := transports.NewMockTransport()
	mock.Respond = replyTo("r axis0.current_state\n", "3\n")
	c := NewClient(mock)

	err := c.RunState(context.Background(), 0, AxisStateFullCalibrationSequence, true, 150*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStateTimeout))
}

func TestClient_SendRawAndQuery(t *testing.T) {
	mock := transports.NewMockTransport()
	mock.Respond = replyTo("r fw_version_major\n", "0\n")
	c := NewClient(mock)
	ctx := context.Background()

	require.NoError(t, c.SendRaw(ctx, "w axis0.config.startup_closed_loop_control 1"))
	line, err := c.Query(ctx, "r fw_version_major\n")
	require.NoError(t, err)
	assert.Equal(t, "0", line)

	assert.Equal(t, []string{
		"w axis0.config.startup_closed_loop_control 1\n",
		"r fw_version_major\n",
	}, mock.Written())
}
