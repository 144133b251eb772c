package robot

import (
	"slices"
)

// AxisCalibration holds the usable travel of one axis, in the units the
// ODrive reports (turns on v3.6 firmware).
type AxisCalibration struct {
	Axis     int     `json:"axis"`
	RangeMin float64 `json:"range_min"`
	RangeMax float64 `json:"range_max"`
	Inverted bool    `json:"inverted,omitempty"`
}

// Calibration holds calibration data for all axes of a drive, keyed by axis name.
type Calibration map[AxisName]AxisCalibration

// Normalize converts a raw position to a normalized value in the range [-100, 100].
func (c AxisCalibration) Normalize(raw float64) float64 {
	rangeSize := c.RangeMax - c.RangeMin
	if rangeSize == 0 {
		return 0
	}
	norm := ((raw-c.RangeMin)/rangeSize)*200 - 100
	if c.Inverted {
		return -norm
	}
	return norm
}

// Denormalize converts a normalized value [-100, 100] to a raw position.
func (c AxisCalibration) Denormalize(norm float64) float64 {
	if c.Inverted {
		norm = -norm
	}
	rangeSize := c.RangeMax - c.RangeMin
	return (norm+100)/200*rangeSize + c.RangeMin
}

// NormalizeVelocity scales a raw velocity into normalized units per second.
func (c AxisCalibration) NormalizeVelocity(raw float64) float64 {
	rangeSize := c.RangeMax - c.RangeMin
	if rangeSize == 0 {
		return 0
	}
	norm := raw / rangeSize * 200
	if c.Inverted {
		return -norm
	}
	return norm
}

// DenormalizeVelocity is the inverse of NormalizeVelocity.
func (c AxisCalibration) DenormalizeVelocity(norm float64) float64 {
	if c.Inverted {
		norm = -norm
	}
	return norm / 200 * (c.RangeMax - c.RangeMin)
}

// Axes returns the calibrated axis names ordered by axis index.
func (c Calibration) Axes() []AxisName {
	names := make([]AxisName, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b AxisName) int {
		return c[a].Axis - c[b].Axis
	})
	return names
}

// ByAxis returns axis name and calibration for a given axis index.
func (c Calibration) ByAxis(axis int) (AxisName, AxisCalibration, bool) {
	for name, ac := range c {
		if ac.Axis == axis {
			return name, ac, true
		}
	}
	return "", AxisCalibration{}, false
}
