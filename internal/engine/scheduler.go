package engine

import "time"

// DefaultFrameInterval approximates a 60 Hz repaint cadence for hosts
// without a native frame callback.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameTimer schedules callbacks aligned to the host's repaint
// cadence. Production code uses an interval timer; tests inject a
// manual implementation and fire frames deterministically.
type FrameTimer interface {
	// Schedule runs fn on the next frame boundary and returns a cancel
	// function. Cancel after the callback has started is a no-op.
	Schedule(fn func()) (cancel func())
}

type intervalTimer struct {
	interval time.Duration
}

// NewIntervalTimer returns a FrameTimer that fires a fixed interval
// after each Schedule call. A non-positive interval falls back to
// DefaultFrameInterval.
func NewIntervalTimer(interval time.Duration) FrameTimer {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &intervalTimer{interval: interval}
}

func (t *intervalTimer) Schedule(fn func()) func() {
	timer := time.AfterFunc(t.interval, fn)
	return func() { timer.Stop() }
}
