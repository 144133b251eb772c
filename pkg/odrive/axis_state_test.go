package odrive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAxisState_RoundTrip(t *testing.T) {
	for _, s := range AllAxisStates() {
		got, ok := AxisStateFromInt(s.Int())
		require.True(t, ok, "state %s", s)
		assert.Equal(t, s, got)

		byName, err := ParseAxisState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, byName)
	}
}

func TestAxisState_UnknownIntegers(t *testing.T) {
	for _, n := range []int64{-1, 5, 15, 255} {
		got, ok := AxisStateFromInt(n)
		assert.False(t, ok, "value %d", n)
		assert.Equal(t, AxisStateUndefined, got)
	}
}

func TestAxisState_String(t *testing.T) {
	assert.Equal(t, "closed_loop_control", AxisStateClosedLoopControl.String())
	assert.Equal(t, "idle", AxisStateIdle.String())
	assert.Equal(t, "axis_state(5)", AxisState(5).String())
}

func TestParseAxisState_Unknown(t *testing.T) {
	_, err := ParseAxisState("warp_drive")
	assert.Error(t, err)
}
