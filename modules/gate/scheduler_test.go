package gate_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"main/modules/gate"
)

func TestSchedulerFires(t *testing.T) {
	t.Parallel()
	s := gate.NewScheduler()

	var fired atomic.Int32
	s.Arm(10*time.Millisecond, func() { fired.Add(1) })

	assert.Eventually(t, func() bool { return fired.Load() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestSchedulerCancel(t *testing.T) {
	t.Parallel()
	s := gate.NewScheduler()

	var fired atomic.Int32
	timer := s.Arm(30*time.Millisecond, func() { fired.Add(1) })
	timer.Cancel()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestSchedulerCancelIdempotent(t *testing.T) {
	t.Parallel()
	s := gate.NewScheduler()

	var fired atomic.Int32
	timer := s.Arm(5*time.Millisecond, func() { fired.Add(1) })

	assert.Eventually(t, func() bool { return fired.Load() == 1 },
		time.Second, time.Millisecond)

	// Cancelling after the timer fired must be safe, repeatedly.
	timer.Cancel()
	timer.Cancel()

	var nilTimer *gate.Timer
	nilTimer.Cancel()
}
