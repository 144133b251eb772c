// Package odrive is a host-side client for the ODrive ASCII protocol.
//
// It talks to ODrive motor controllers over their USB serial port: position,
// velocity and torque setpoints, feedback, parameter access and the axis
// state machine. On top of the client sits a leader/follower controller that
// mirrors one hand-moved drive onto another.
//
// # Installation
//
//	go install github.com/gwillem/odrive/cmd/odrive@latest
//
// # Usage
//
// Talk to a single drive:
//
//	odrive --port /dev/ttyACM0 get vbus_voltage
//	odrive --axis 0 state --request closed_loop_control
//	odrive move 1.5 --vel-ff 2
//	odrive shell
//
// Detect and calibrate a leader/follower pair, then start teleoperation:
//
//	odrive setup
//	odrive teleoperate
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/odrive: CLI for parameters, states, setpoints, setup and teleoperate
//   - cmd/odrive-info: port scanner that lists connected drives
//   - pkg/odrive: ASCII protocol client
//   - pkg/transports: serial port and in-memory test transports
//   - pkg/robot: drives, axis calibration and configuration
//   - pkg/teleop: teleoperation controller
package odrive
