// Package robot binds ODrive clients to configured serial ports and
// calibrated axes.
package robot

import (
	"strconv"
	"strings"
)

// AxisName identifies an axis on a drive.
type AxisName string

// Axis names of a two-axis ODrive.
const (
	Axis0 AxisName = "axis0"
	Axis1 AxisName = "axis1"
)

// AllAxes returns every axis name in index order.
func AllAxes() []AxisName {
	return []AxisName{Axis0, Axis1}
}

// AxisNameFor returns the conventional name for an axis index.
func AxisNameFor(index int) AxisName {
	return AxisName("axis" + strconv.Itoa(index))
}

// Index parses the axis index out of names like "axis1".
func (n AxisName) Index() (int, bool) {
	s, ok := strings.CutPrefix(string(n), "axis")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
