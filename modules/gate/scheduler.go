package gate

import (
	"sync/atomic"
	"time"
)

// Timer is a single armed eviction timer. Cancel is idempotent and
// safe to call after the timer fired; the registry's atomic remove is
// the real guard against double action, cancellation is best-effort.
type Timer struct {
	t         *time.Timer
	cancelled atomic.Bool
}

func (t *Timer) Cancel() {
	if t == nil {
		return
	}
	if t.cancelled.CompareAndSwap(false, true) {
		t.t.Stop()
	}
}

// Scheduler arms one independent timer per challenge.
type Scheduler struct{}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Arm schedules onExpire after d. onExpire must consult the registry
// itself and no-op when the entry is already gone.
func (s *Scheduler) Arm(d time.Duration, onExpire func()) *Timer {
	timer := &Timer{}
	timer.t = time.AfterFunc(d, func() {
		if timer.cancelled.Load() {
			return
		}
		onExpire()
	})
	return timer
}
