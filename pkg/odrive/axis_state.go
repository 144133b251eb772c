package odrive

import "fmt"

// AxisState is the state of one axis' state machine as reported by
// axis<N>.current_state and requested through axis<N>.requested_state.
type AxisState int

// Axis states, numbered as in the ODrive v3.6, S1 and Pro firmware.
const (
	AxisStateUndefined                      AxisState = 0
	AxisStateIdle                           AxisState = 1
	AxisStateStartupSequence                AxisState = 2
	AxisStateFullCalibrationSequence        AxisState = 3
	AxisStateMotorCalibration               AxisState = 4
	AxisStateEncoderIndexSearch             AxisState = 6
	AxisStateEncoderOffsetCalibration       AxisState = 7
	AxisStateClosedLoopControl              AxisState = 8
	AxisStateLockinSpin                     AxisState = 9
	AxisStateEncoderDirFind                 AxisState = 10
	AxisStateHoming                         AxisState = 11
	AxisStateEncoderHallPolarityCalibration AxisState = 12
	AxisStateEncoderHallPhaseCalibration    AxisState = 13
	AxisStateAnticoggingCalibration         AxisState = 14
)

var axisStateNames = map[AxisState]string{
	AxisStateUndefined:                      "undefined",
	AxisStateIdle:                           "idle",
	AxisStateStartupSequence:                "startup_sequence",
	AxisStateFullCalibrationSequence:        "full_calibration_sequence",
	AxisStateMotorCalibration:               "motor_calibration",
	AxisStateEncoderIndexSearch:             "encoder_index_search",
	AxisStateEncoderOffsetCalibration:       "encoder_offset_calibration",
	AxisStateClosedLoopControl:              "closed_loop_control",
	AxisStateLockinSpin:                     "lockin_spin",
	AxisStateEncoderDirFind:                 "encoder_dir_find",
	AxisStateHoming:                         "homing",
	AxisStateEncoderHallPolarityCalibration: "encoder_hall_polarity_calibration",
	AxisStateEncoderHallPhaseCalibration:    "encoder_hall_phase_calibration",
	AxisStateAnticoggingCalibration:         "anticogging_calibration",
}

// AxisStateFromInt maps a wire integer back to its AxisState.
// Integers outside the enumeration yield AxisStateUndefined and false.
func AxisStateFromInt(n int64) (AxisState, bool) {
	s := AxisState(n)
	if int64(s) != n {
		return AxisStateUndefined, false
	}
	if _, ok := axisStateNames[s]; !ok {
		return AxisStateUndefined, false
	}
	return s, true
}

// ParseAxisState looks up a state by its snake_case name, e.g. "closed_loop_control".
func ParseAxisState(name string) (AxisState, error) {
	for s, n := range axisStateNames {
		if n == name {
			return s, nil
		}
	}
	return AxisStateUndefined, fmt.Errorf("unknown axis state %q", name)
}

// AllAxisStates returns every defined state in wire order.
func AllAxisStates() []AxisState {
	return []AxisState{
		AxisStateUndefined,
		AxisStateIdle,
		AxisStateStartupSequence,
		AxisStateFullCalibrationSequence,
		AxisStateMotorCalibration,
		AxisStateEncoderIndexSearch,
		AxisStateEncoderOffsetCalibration,
		AxisStateClosedLoopControl,
		AxisStateLockinSpin,
		AxisStateEncoderDirFind,
		AxisStateHoming,
		AxisStateEncoderHallPolarityCalibration,
		AxisStateEncoderHallPhaseCalibration,
		AxisStateAnticoggingCalibration,
	}
}

// Int returns the wire encoding of the state.
func (s AxisState) Int() int64 {
	return int64(s)
}

func (s AxisState) String() string {
	if name, ok := axisStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("axis_state(%d)", int(s))
}
