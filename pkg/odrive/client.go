package odrive

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// statePollInterval is how often RunState polls current_state.
const statePollInterval = 100 * time.Millisecond

// Client talks to one ODrive over a borrowed Transport.
//
// Each operation is a single synchronous exchange: one write, then for
// queries one line read. Responses carry no request id, so a client must
// not share its transport with another client.
type Client struct {
	transport Transport
	logger    *slog.Logger

	mu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for wire tracing. Default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client on top of an already opened transport.
func NewClient(t Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transport returns the transport the client was created with.
func (c *Client) Transport() Transport {
	return c.transport
}

// Errors and state

// ClearErrors clears all error flags and restarts the brake resistor.
// No response is solicited and no error is reported.
func (c *Client) ClearErrors(ctx context.Context) {
	if err := c.send(ctx, CmdClearErrors+"\n"); err != nil {
		c.logger.Warn("clear errors not sent", "error", err)
	}
}

// SetState requests a state transition on the given axis.
func (c *Client) SetState(ctx context.Context, axis int, state AxisState) error {
	return c.SetParameterInt(ctx, RequestedStatePath(axis), state.Int())
}

// GetState reads the current state of the given axis.
// Any failure, including a transport error, yields AxisStateUndefined.
func (c *Client) GetState(ctx context.Context, axis int) AxisState {
	n, err := c.GetParameterAsInt(ctx, CurrentStatePath(axis))
	if err != nil {
		c.logger.Debug("axis state unavailable", "axis", axis, "error", err)
		return AxisStateUndefined
	}

	state, ok := AxisStateFromInt(n)
	if !ok {
		c.logger.Debug("unknown axis state", "axis", axis, "value", n)
	}
	return state
}

// RunState requests state on axis. With waitForIdle it then polls until
// the axis is back in AxisStateIdle, returning ErrStateTimeout if that
// takes longer than timeout.
func (c *Client) RunState(ctx context.Context, axis int, state AxisState, waitForIdle bool, timeout time.Duration) error {
	if err := c.SetState(ctx, axis, state); err != nil {
		return err
	}
	if !waitForIdle {
		return nil
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(statePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if c.GetState(ctx, axis) == AxisStateIdle {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("axis %d %s: %w", axis, state, ErrStateTimeout)
		}
	}
}

// Motion

// SetPosition sends a position setpoint with no feedforward terms.
func (c *Client) SetPosition(ctx context.Context, axis int, position float32) error {
	return c.SetPositionWithFeedforward(ctx, axis, position, 0, 0)
}

// SetPositionWithVelocity sends a position setpoint with a velocity feedforward term.
func (c *Client) SetPositionWithVelocity(ctx context.Context, axis int, position, velocityFF float32) error {
	return c.SetPositionWithFeedforward(ctx, axis, position, velocityFF, 0)
}

// SetPositionWithFeedforward sends a position setpoint with velocity and
// torque feedforward terms. The axis index is not validated.
func (c *Client) SetPositionWithFeedforward(ctx context.Context, axis int, position, velocityFF, torqueFF float32) error {
	return c.send(ctx, PositionCommand(axis, position, velocityFF, torqueFF))
}

// SetVelocity sends a velocity setpoint with a torque feedforward term.
func (c *Client) SetVelocity(ctx context.Context, axis int, velocity, torqueFF float32) error {
	return c.send(ctx, VelocityCommand(axis, velocity, torqueFF))
}

// SetTorque sends a torque setpoint.
func (c *Client) SetTorque(ctx context.Context, axis int, torque float32) error {
	return c.send(ctx, TorqueCommand(axis, torque))
}

// TrapezoidalMove starts a trapezoidal trajectory to position.
func (c *Client) TrapezoidalMove(ctx context.Context, axis int, position float32) error {
	return c.send(ctx, TrapezoidalMoveCommand(axis, position))
}

// Feedback

// GetFeedback requests the position and velocity estimates of an axis.
//
// A response that is not two space-separated numbers yields
// InvalidFeedback with a nil error. Only communication failures are
// returned as errors.
func (c *Client) GetFeedback(ctx context.Context, axis int) (Feedback, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flushLocked()

	line, err := c.exchangeLocked(ctx, FeedbackCommand(axis))
	if err != nil {
		return InvalidFeedback(), err
	}

	fb := parseFeedback(line)
	if !fb.Valid() {
		c.logger.Debug("malformed feedback", "axis", axis, "line", line)
	}
	return fb, nil
}

// GetPosition returns the position estimate of an axis (NaN if malformed).
func (c *Client) GetPosition(ctx context.Context, axis int) (float32, error) {
	fb, err := c.GetFeedback(ctx, axis)
	return fb.Pos, err
}

// GetVelocity returns the velocity estimate of an axis (NaN if malformed).
func (c *Client) GetVelocity(ctx context.Context, axis int) (float32, error) {
	fb, err := c.GetFeedback(ctx, axis)
	return fb.Vel, err
}

// Parameters

// GetParameterAsString reads a parameter and returns the response line verbatim.
func (c *Client) GetParameterAsString(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.exchangeLocked(ctx, ReadCommand(path))
}

// GetParameterAsInt reads a parameter as a base-10 integer.
func (c *Client) GetParameterAsInt(ctx context.Context, path string) (int64, error) {
	s, err := c.GetParameterAsString(ctx, path)
	if err != nil {
		return 0, err
	}

	n, err := parseInt64(s)
	if err != nil {
		return 0, &ParseError{Path: path, Value: s, Err: err}
	}
	return n, nil
}

// GetParameterAsFloat reads a parameter as a floating point number.
func (c *Client) GetParameterAsFloat(ctx context.Context, path string) (float32, error) {
	s, err := c.GetParameterAsString(ctx, path)
	if err != nil {
		return 0, err
	}

	v, err := parseFloat32(s)
	if err != nil {
		return 0, &ParseError{Path: path, Value: s, Err: err}
	}
	return v, nil
}

// SetParameter writes a parameter. The ODrive does not acknowledge writes.
func (c *Client) SetParameter(ctx context.Context, path, value string) error {
	return c.send(ctx, WriteCommand(path, value))
}

// SetParameterInt writes an integer parameter.
func (c *Client) SetParameterInt(ctx context.Context, path string, value int64) error {
	return c.SetParameter(ctx, path, strconv.FormatInt(value, 10))
}

// System commands

// SaveConfiguration persists the current configuration to flash.
func (c *Client) SaveConfiguration(ctx context.Context) error {
	return c.send(ctx, CmdSaveConfiguration+"\n")
}

// EraseConfiguration resets the configuration to factory defaults.
func (c *Client) EraseConfiguration(ctx context.Context) error {
	return c.send(ctx, CmdEraseConfiguration+"\n")
}

// Reboot restarts the ODrive.
func (c *Client) Reboot(ctx context.Context) error {
	return c.send(ctx, CmdReboot+"\n")
}

// Raw access

// SendRaw writes line as a command without waiting for a response.
// A terminator is appended if missing.
func (c *Client) SendRaw(ctx context.Context, line string) error {
	return c.send(ctx, terminate(line))
}

// Query writes line as a command and returns the single response line.
func (c *Client) Query(ctx context.Context, line string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.exchangeLocked(ctx, terminate(line))
}

// Internal methods

func (c *Client) send(ctx context.Context, cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.writeLocked(ctx, cmd)
}

func (c *Client) writeLocked(ctx context.Context, cmd string) error {
	if err := ctx.Err(); err != nil {
		return &CommError{Op: "write", Err: err}
	}

	c.logger.Debug("tx", "line", cmd[:len(cmd)-1])

	n, err := c.transport.Write([]byte(cmd))
	if err != nil {
		return &CommError{Op: "write", Err: err}
	}
	if n != len(cmd) {
		return &CommError{Op: "write", Err: fmt.Errorf("incomplete write: %d of %d bytes", n, len(cmd))}
	}
	return nil
}

func (c *Client) exchangeLocked(ctx context.Context, cmd string) (string, error) {
	if err := c.writeLocked(ctx, cmd); err != nil {
		return "", err
	}

	line, err := readLine(ctx, c.transport)
	if err != nil {
		return "", err
	}

	c.logger.Debug("rx", "line", line)
	return line, nil
}

// flushLocked discards whatever a single read returns, so a stale
// response from an earlier exchange is not taken as the next answer.
func (c *Client) flushLocked() {
	buf := make([]byte, readBufferSize)
	n, err := c.transport.Read(buf)
	if n > 0 {
		c.logger.Debug("flushed stale input", "bytes", n)
	}
	if err != nil {
		c.logger.Debug("flush read failed", "error", err)
	}
}

func terminate(line string) string {
	if len(line) > 0 && line[len(line)-1] == lineTerminator {
		return line
	}
	return line + string(lineTerminator)
}
