package odrive

import (
	"math"
	"strconv"
	"strings"
)

// Feedback holds the position and velocity estimates of one axis.
type Feedback struct {
	Pos float32 // [turns or rad] position estimate
	Vel float32 // [per second] velocity estimate
}

// InvalidFeedback is returned when a feedback response could not be parsed.
func InvalidFeedback() Feedback {
	nan := float32(math.NaN())
	return Feedback{Pos: nan, Vel: nan}
}

// Valid reports whether both fields hold numbers.
func (f Feedback) Valid() bool {
	return !math.IsNaN(float64(f.Pos)) && !math.IsNaN(float64(f.Vel))
}

// parseFeedback splits a "<pos> <vel>" line at the first space.
// Anything it cannot read degrades to InvalidFeedback.
func parseFeedback(line string) Feedback {
	before, after, found := strings.Cut(line, " ")
	if !found {
		return InvalidFeedback()
	}

	pos, err := parseFloat32(before)
	if err != nil {
		return InvalidFeedback()
	}
	vel, err := parseFloat32(after)
	if err != nil {
		return InvalidFeedback()
	}

	return Feedback{Pos: pos, Vel: vel}
}

func parseFloat32(s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
