package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalTimerFires(t *testing.T) {
	frames := NewIntervalTimer(time.Millisecond)

	fired := make(chan struct{})
	frames.Schedule(func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("frame callback never fired")
	}
}

func TestIntervalTimerCancel(t *testing.T) {
	frames := NewIntervalTimer(50 * time.Millisecond)

	fired := make(chan struct{}, 1)
	cancel := frames.Schedule(func() { fired <- struct{}{} })
	cancel()

	select {
	case <-fired:
		t.Fatal("cancelled frame still fired")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestIntervalTimerDefaultInterval(t *testing.T) {
	timer, ok := NewIntervalTimer(0).(*intervalTimer)
	assert.True(t, ok)
	assert.Equal(t, DefaultFrameInterval, timer.interval)
}
