package services

import (
	"fmt"
	"sync"
	"time"

	"statusboard-backend/internal/clock"
)

const TimerTickInterval = time.Second

// FormatElapsed renders d as HH:MM:SS. Hours are not capped.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hrs := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hrs, mins, secs)
}

// Timer reports the time since a status was entered at a fixed interval.
// Start replaces any running tick, so ticks never stack.
// onTick must not call Start or Stop on the same Timer.
type Timer struct {
	clock    clock.Clock
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewTimer(clk clock.Clock, interval time.Duration) *Timer {
	if interval <= 0 {
		interval = TimerTickInterval
	}
	return &Timer{clock: clk, interval: interval}
}

func (t *Timer) Start(since time.Time, onTick func(elapsed string)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop = stop
	t.done = done

	go func() {
		defer close(done)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				onTick(FormatElapsed(t.clock.Now().Sub(since)))
			}
		}
	}()
}

func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *Timer) stopLocked() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop = nil
	t.done = nil
}
