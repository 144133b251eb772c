// Package teleop provides leader/follower control for ODrive axes.
package teleop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gwillem/odrive/pkg/robot"
)

// State represents the current state of teleoperation.
type State struct {
	Samples   map[robot.AxisName]robot.Sample
	Timestamp time.Time
	Error     error
}

// Controller manages the teleoperation control loop.
type Controller struct {
	leader   *robot.Drive
	follower *robot.Drive // nil in monitor-only mode
	hz       int
	mirror   bool
	logger   *slog.Logger

	mu      sync.RWMutex
	running bool
	stateCh chan State
	logCh   chan string
}

// Config holds configuration for the controller.
type Config struct {
	Leader   robot.DriveConfig
	Follower *robot.DriveConfig // nil to only monitor the leader
	Hz       int
	Mirror   bool // Invert every axis on the follower
	Logger   *slog.Logger
}

// NewController opens the configured drives and creates a controller.
func NewController(cfg Config) (*Controller, error) {
	leader, err := robot.NewDrive(cfg.Leader, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("create leader drive: %w", err)
	}

	var follower *robot.Drive
	if cfg.Follower != nil {
		follower, err = robot.NewDrive(*cfg.Follower, cfg.Logger)
		if err != nil {
			leader.Close()
			return nil, fmt.Errorf("create follower drive: %w", err)
		}
	}

	return New(leader, follower, cfg.Hz, cfg.Mirror, cfg.Logger), nil
}

// New creates a controller on already opened drives. follower may be nil.
func New(leader, follower *robot.Drive, hz int, mirror bool, logger *slog.Logger) *Controller {
	if hz <= 0 {
		hz = 60
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Controller{
		leader:   leader,
		follower: follower,
		hz:       hz,
		mirror:   mirror,
		logger:   logger,
		stateCh:  make(chan State, 1),
		logCh:    make(chan string, 10),
	}
}

// Close closes the controller and releases resources.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	var errs []error
	if err := c.leader.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.follower != nil {
		if err := c.follower.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// MonitorOnly reports whether the controller runs without a follower.
func (c *Controller) MonitorOnly() bool {
	return c.follower == nil
}

func (c *Controller) log(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	c.logger.Info(text)

	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), text)
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start begins the control loop. It returns when ctx is done.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	// Leader idles so it can be moved by hand
	if err := c.leader.Disable(ctx); err != nil {
		c.log("Warning: failed to idle leader: %v", err)
	} else {
		c.log("Leader drive: axes idle (passive mode)")
	}

	if c.follower != nil {
		if err := c.follower.Enable(ctx); err != nil {
			c.log("Warning: failed to enable follower: %v", err)
		} else {
			c.log("Follower drive: closed loop control")
		}
		c.log("Teleoperation started at %d Hz", c.hz)
	} else {
		c.log("Monitoring started at %d Hz", c.hz)
	}

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

func (c *Controller) step(ctx context.Context) {
	samples, err := c.leader.ReadSamples(ctx)
	if err != nil {
		c.log("Read error: %v", err)
		c.sendState(State{Error: err, Timestamp: time.Now()})
		return
	}

	if c.follower != nil {
		if err := c.follower.WriteSamples(ctx, c.followerSamples(samples)); err != nil {
			c.log("Write error: %v", err)
		}
	}

	c.sendState(State{
		Samples:   samples,
		Timestamp: time.Now(),
	})
}

func (c *Controller) followerSamples(samples map[robot.AxisName]robot.Sample) map[robot.AxisName]robot.Sample {
	out := make(map[robot.AxisName]robot.Sample, len(samples))
	for name, s := range samples {
		s.Position = clamp(s.Position, -100, 100)
		if c.mirror {
			s.Position = -s.Position
			s.Velocity = -s.Velocity
		}
		out[name] = s
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if c.follower == nil {
		c.log("Monitoring stopped")
		return
	}

	ctx := context.Background()
	if err := c.follower.Disable(ctx); err != nil {
		c.log("Warning: failed to idle follower: %v", err)
	} else {
		c.log("Follower drive: axes idle")
	}
	c.log("Teleoperation stopped")
}
