package app

import "time"

// Timer measures the time between frames.
type Timer struct {
	now  func() time.Time
	last time.Time
}

// NewTimer starts a timer at the current time.
func NewTimer() *Timer {
	return newTimer(time.Now)
}

func newTimer(now func() time.Time) *Timer {
	return &Timer{now: now, last: now()}
}

// Delta returns the time since the previous call (or since creation).
func (t *Timer) Delta() time.Duration {
	now := t.now()
	dt := now.Sub(t.last)
	t.last = now
	return dt
}
