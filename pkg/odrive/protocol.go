// Package odrive provides a client for the ODrive ASCII protocol.
//
// Commands are single lines of text terminated by '\n'. Most commands are
// fire-and-forget; reads ("r") and feedback requests ("f") answer with a
// single line.
package odrive

import (
	"strconv"
	"strings"
)

// Command letters of the ASCII protocol.
const (
	CmdClearErrors        = "sc"
	CmdSaveConfiguration  = "ss"
	CmdEraseConfiguration = "se"
	CmdReboot             = "sr"
	CmdPosition           = "p"
	CmdVelocity           = "v"
	CmdTorque             = "c"
	CmdTrapezoidalMove    = "t"
	CmdRead               = "r"
	CmdWrite              = "w"
	CmdFeedback           = "f"
)

const lineTerminator = '\n'

// formatFloat renders a value the way the firmware parser expects:
// shortest exact decimal text, no exponent.
func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// buildCommand joins fields with single spaces and appends the terminator.
func buildCommand(fields ...string) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(f)
	}
	sb.WriteByte(lineTerminator)
	return sb.String()
}

// PositionCommand builds "p <axis> <pos> <velFF> <torqueFF>\n".
func PositionCommand(axis int, pos, velFF, torqueFF float32) string {
	return buildCommand(CmdPosition, strconv.Itoa(axis), formatFloat(pos), formatFloat(velFF), formatFloat(torqueFF))
}

// VelocityCommand builds "v <axis> <vel> <torqueFF>\n".
func VelocityCommand(axis int, vel, torqueFF float32) string {
	return buildCommand(CmdVelocity, strconv.Itoa(axis), formatFloat(vel), formatFloat(torqueFF))
}

// TorqueCommand builds "c <axis> <torque>\n".
func TorqueCommand(axis int, torque float32) string {
	return buildCommand(CmdTorque, strconv.Itoa(axis), formatFloat(torque))
}

// TrapezoidalMoveCommand builds "t <axis> <pos>\n".
func TrapezoidalMoveCommand(axis int, pos float32) string {
	return buildCommand(CmdTrapezoidalMove, strconv.Itoa(axis), formatFloat(pos))
}

// ReadCommand builds "r <path>\n".
func ReadCommand(path string) string {
	return buildCommand(CmdRead, path)
}

// WriteCommand builds "w <path> <value>\n".
func WriteCommand(path, value string) string {
	return buildCommand(CmdWrite, path, value)
}

// FeedbackCommand builds "f <axis>\n".
func FeedbackCommand(axis int) string {
	return buildCommand(CmdFeedback, strconv.Itoa(axis))
}

// RequestedStatePath returns the parameter path used to request a state change.
func RequestedStatePath(axis int) string {
	return "axis" + strconv.Itoa(axis) + ".requested_state"
}

// CurrentStatePath returns the parameter path holding the current axis state.
func CurrentStatePath(axis int) string {
	return "axis" + strconv.Itoa(axis) + ".current_state"
}
