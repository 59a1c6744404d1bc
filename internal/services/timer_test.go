package services

import (
	"sync"
	"testing"
	"time"

	"statusboard-backend/internal/clock"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		expected string
	}{
		{"zero", 0, "00:00:00"},
		{"seconds", 9 * time.Second, "00:00:09"},
		{"mixed", time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{"truncates fraction", 59*time.Second + 999*time.Millisecond, "00:00:59"},
		{"unbounded hours", 123*time.Hour + 4*time.Minute + 5*time.Second, "123:04:05"},
		{"negative clamps", -5 * time.Second, "00:00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatElapsed(tc.d); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

type tickRecorder struct {
	mu    sync.Mutex
	ticks []string
}

func (r *tickRecorder) record(elapsed string) {
	r.mu.Lock()
	r.ticks = append(r.ticks, elapsed)
	r.mu.Unlock()
}

func (r *tickRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticks)
}

func (r *tickRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ticks) == 0 {
		return ""
	}
	return r.ticks[len(r.ticks)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTimer_TicksElapsedSinceStart(t *testing.T) {
	clk := clock.NewFixed(t0.Add(2*time.Hour + 5*time.Second))
	timer := NewTimer(clk, 10*time.Millisecond)
	rec := &tickRecorder{}

	timer.Start(t0, rec.record)
	defer timer.Stop()

	waitFor(t, func() bool { return rec.count() >= 2 })
	if got := rec.last(); got != "02:00:05" {
		t.Fatalf("expected 02:00:05, got %q", got)
	}
	if !timer.Running() {
		t.Fatalf("expected timer to report running")
	}
}

func TestTimer_RestartReplacesPreviousTick(t *testing.T) {
	clk := clock.NewFixed(t0.Add(time.Hour))
	timer := NewTimer(clk, 10*time.Millisecond)
	first := &tickRecorder{}
	second := &tickRecorder{}

	timer.Start(t0, first.record)
	waitFor(t, func() bool { return first.count() >= 1 })

	timer.Start(t0.Add(30*time.Minute), second.record)
	defer timer.Stop()
	stoppedAt := first.count()

	waitFor(t, func() bool { return second.count() >= 3 })
	if first.count() != stoppedAt {
		t.Fatalf("previous tick kept running after restart")
	}
	if got := second.last(); got != "00:30:00" {
		t.Fatalf("expected 00:30:00, got %q", got)
	}
}

func TestTimer_StopCancels(t *testing.T) {
	timer := NewTimer(clock.NewFixed(t0), 10*time.Millisecond)
	rec := &tickRecorder{}

	timer.Start(t0, rec.record)
	waitFor(t, func() bool { return rec.count() >= 1 })
	timer.Stop()
	stoppedAt := rec.count()

	time.Sleep(50 * time.Millisecond)
	if rec.count() != stoppedAt {
		t.Fatalf("expected no ticks after Stop")
	}
	if timer.Running() {
		t.Fatalf("expected timer to report stopped")
	}

	// Stopping twice is harmless.
	timer.Stop()
}
