package domain

import (
	"errors"
	"time"
)

// ErrTimerNotStarted is returned when a timer is stopped before Start.
var ErrTimerNotStarted = errors.New("timer has not been started")

// ErrTimerStopped is returned when Stop is called a second time.
var ErrTimerStopped = errors.New("timer already stopped")

// Timer tracks elapsed and remaining time for a single question instance.
// It lives only in process memory; a restart loses in-flight timing, and
// the persisted question start instant is what recovery recomputes from.
type Timer struct {
	limit     time.Duration
	clock     func() time.Time
	startedAt time.Time
	started   bool
	stopped   bool
	elapsed   time.Duration
}

// NewTimer builds a timer with the difficulty-derived limit. A nil clock
// defaults to time.Now.
func NewTimer(difficulty Difficulty, clock func() time.Time) *Timer {
	if clock == nil {
		clock = time.Now
	}
	return &Timer{limit: difficulty.TimeLimit(), clock: clock}
}

// Start records the start instant. Calling Start again restarts the window.
func (t *Timer) Start() {
	t.startedAt = t.clock()
	t.started = true
	t.stopped = false
	t.elapsed = 0
}

// StartedAt returns the recorded start instant in UTC.
func (t *Timer) StartedAt() time.Time {
	return t.startedAt.UTC()
}

// Limit returns the answering window for this question.
func (t *Timer) Limit() time.Duration {
	return t.limit
}

// Remaining returns the time left before the limit, never negative. Safe to
// poll repeatedly; it does not mutate the timer.
func (t *Timer) Remaining() time.Duration {
	remaining := t.limit - t.elapsedNow()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stop freezes the timer and returns the total elapsed time. It may be
// called once per started timer.
func (t *Timer) Stop() (time.Duration, error) {
	if !t.started {
		return 0, ErrTimerNotStarted
	}
	if t.stopped {
		return 0, ErrTimerStopped
	}
	t.elapsed = t.clock().Sub(t.startedAt)
	if t.elapsed < 0 {
		t.elapsed = 0
	}
	t.stopped = true
	return t.elapsed, nil
}

// TimedOut reports whether elapsed time reached the limit.
func (t *Timer) TimedOut() bool {
	return t.elapsedNow() >= t.limit
}

func (t *Timer) elapsedNow() time.Duration {
	if t.stopped {
		return t.elapsed
	}
	if !t.started {
		return 0
	}
	elapsed := t.clock().Sub(t.startedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
