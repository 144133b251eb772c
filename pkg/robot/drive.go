package robot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gwillem/odrive/pkg/odrive"
	"github.com/gwillem/odrive/pkg/transports"
)

// Sample is a normalized position/velocity pair for one axis.
type Sample struct {
	Position float64 // [-100, 100]
	Velocity float64 // normalized units per second
}

// Drive represents one ODrive with its calibrated axes.
type Drive struct {
	transport   odrive.Transport
	client      *odrive.Client
	calibration Calibration
	logger      *slog.Logger
}

// NewDrive opens the drive's serial port and creates a client on it.
func NewDrive(cfg DriveConfig, logger *slog.Logger) (*Drive, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t, err := transports.OpenSerial(transports.SerialConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Timeout:  cfg.ReadTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("open drive: %w", err)
	}

	return NewDriveWithTransport(t, cfg.Calibration, logger.With("port", cfg.Port)), nil
}

// NewDriveWithTransport creates a drive on an already opened transport.
// Close closes the transport if it implements io.Closer.
func NewDriveWithTransport(t odrive.Transport, cal Calibration, logger *slog.Logger) *Drive {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Drive{
		transport:   t,
		client:      odrive.NewClient(t, odrive.WithLogger(logger)),
		calibration: cal,
		logger:      logger,
	}
}

// Close closes the drive's transport.
func (d *Drive) Close() error {
	if c, ok := d.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Client returns the protocol client of this drive.
func (d *Drive) Client() *odrive.Client {
	return d.client
}

// Calibration returns the drive's axis calibration.
func (d *Drive) Calibration() Calibration {
	return d.calibration
}

// Enable clears errors and puts every calibrated axis into closed loop control.
func (d *Drive) Enable(ctx context.Context) error {
	d.client.ClearErrors(ctx)
	return d.setStateAll(ctx, odrive.AxisStateClosedLoopControl)
}

// Disable puts every calibrated axis into idle so it can be moved by hand.
func (d *Drive) Disable(ctx context.Context) error {
	return d.setStateAll(ctx, odrive.AxisStateIdle)
}

func (d *Drive) setStateAll(ctx context.Context, state odrive.AxisState) error {
	var errs []error
	for _, name := range d.calibration.Axes() {
		axis := d.calibration[name].Axis
		if err := d.client.SetState(ctx, axis, state); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// States reads the current state of every calibrated axis.
func (d *Drive) States(ctx context.Context) map[AxisName]odrive.AxisState {
	states := make(map[AxisName]odrive.AxisState, len(d.calibration))
	for _, name := range d.calibration.Axes() {
		states[name] = d.client.GetState(ctx, d.calibration[name].Axis)
	}
	return states
}

// ReadSamples reads feedback from every calibrated axis and normalizes it.
// Axes that answered with malformed feedback are left out of the result.
func (d *Drive) ReadSamples(ctx context.Context) (map[AxisName]Sample, error) {
	samples := make(map[AxisName]Sample, len(d.calibration))
	for _, name := range d.calibration.Axes() {
		cal := d.calibration[name]
		fb, err := d.client.GetFeedback(ctx, cal.Axis)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if !fb.Valid() {
			d.logger.Debug("skipping invalid feedback", "axis", name)
			continue
		}
		samples[name] = Sample{
			Position: cal.Normalize(float64(fb.Pos)),
			Velocity: cal.NormalizeVelocity(float64(fb.Vel)),
		}
	}
	return samples, nil
}

// WriteSamples commands every axis present in samples to the denormalized
// position, using the denormalized velocity as feedforward.
func (d *Drive) WriteSamples(ctx context.Context, samples map[AxisName]Sample) error {
	for _, name := range d.calibration.Axes() {
		s, ok := samples[name]
		if !ok {
			continue
		}
		cal := d.calibration[name]
		pos := float32(cal.Denormalize(s.Position))
		vel := float32(cal.DenormalizeVelocity(s.Velocity))
		if err := d.client.SetPositionWithVelocity(ctx, cal.Axis, pos, vel); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
