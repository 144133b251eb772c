package teleop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/odrive/pkg/robot"
	"github.com/gwillem/odrive/pkg/transports"
)

func leaderMock(feedback string) *transports.MockTransport {
	mock := transports.NewMockTransport()
	mock.Respond = func(cmd string) string {
		if cmd == "f 0\n" {
			return feedback
		}
		return ""
	}
	return mock
}

func newTestController(t *testing.T, feedback string, mirror bool) (*Controller, *transports.MockTransport) {
	t.Helper()

	leader := robot.NewDriveWithTransport(leaderMock(feedback), robot.Calibration{
		robot.Axis0: {Axis: 0, RangeMin: -1, RangeMax: 1},
	}, nil)

	followerMock := transports.NewMockTransport()
	follower := robot.NewDriveWithTransport(followerMock, robot.Calibration{
		robot.Axis0: {Axis: 0, RangeMin: 0, RangeMax: 10},
	}, nil)

	return New(leader, follower, 100, mirror, nil), followerMock
}

func TestController_Step(t *testing.T) {
	ctrl, follower := newTestController(t, "0.5 2\n", false)

	ctrl.step(context.Background())

	assert.Equal(t, []string{"p 0 7.5 10 0\n"}, follower.Written())

	state := <-ctrl.States()
	require.NoError(t, state.Error)
	assert.InDelta(t, 50.0, state.Samples[robot.Axis0].Position, 1e-6)
}

func TestController_StepMirror(t *testing.T) {
	ctrl, follower := newTestController(t, "0.5 2\n", true)

	ctrl.step(context.Background())

	assert.Equal(t, []string{"p 0 2.5 -10 0\n"}, follower.Written())
}

func TestController_StepClampsFollower(t *testing.T) {
	ctrl, follower := newTestController(t, "2 0\n", false)

	ctrl.step(context.Background())

	assert.Equal(t, []string{"p 0 10 0 0\n"}, follower.Written())
}

func TestController_StepReadError(t *testing.T) {
	leader := robot.NewDriveWithTransport(transports.NewMockTransport(), robot.Calibration{
		robot.Axis0: {Axis: 0, RangeMin: -1, RangeMax: 1},
	}, nil)
	followerMock := transports.NewMockTransport()
	follower := robot.NewDriveWithTransport(followerMock, robot.Calibration{
		robot.Axis0: {Axis: 0, RangeMin: 0, RangeMax: 10},
	}, nil)
	ctrl := New(leader, follower, 0, false, nil)

	ctrl.step(context.Background())

	state := <-ctrl.States()
	assert.Error(t, state.Error)
	assert.Empty(t, followerMock.Written())
	assert.Equal(t, 60, ctrl.Hz())
}

func TestController_MonitorOnly(t *testing.T) {
	leader := robot.NewDriveWithTransport(leaderMock("0 0\n"), robot.Calibration{
		robot.Axis0: {Axis: 0, RangeMin: -1, RangeMax: 1},
	}, nil)
	ctrl := New(leader, nil, 50, false, nil)
	require.True(t, ctrl.MonitorOnly())

	ctrl.step(context.Background())

	state := <-ctrl.States()
	assert.InDelta(t, 0.0, state.Samples[robot.Axis0].Position, 1e-6)
}

func TestController_StartStop(t *testing.T) {
	ctrl, follower := newTestController(t, "0 0\n", false)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := ctrl.Start(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	written := follower.Written()
	require.NotEmpty(t, written)
	assert.Equal(t, "sc\n", written[0])
	assert.Equal(t, "w axis0.requested_state 8\n", written[1])
	assert.Equal(t, "w axis0.requested_state 1\n", written[len(written)-1])

	require.NoError(t, ctrl.Close())
}

func TestController_SendStateKeepsLatest(t *testing.T) {
	ctrl, _ := newTestController(t, "0 0\n", false)

	first := State{Timestamp: time.Unix(1, 0)}
	second := State{Timestamp: time.Unix(2, 0)}
	ctrl.sendState(first)
	ctrl.sendState(second)

	got := <-ctrl.States()
	assert.Equal(t, second.Timestamp, got.Timestamp)
}
