package inputmonitor

import (
	"context"
	"testing"
	"time"
)

func TestTickerMonitorEmitsCursorMoveEvents(t *testing.T) {
	m := NewTickerMonitor(5*time.Millisecond, 12, 34)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out := make(chan Event, 8)
	go m.Run(ctx, out)

	select {
	case ev := <-out:
		if ev.Kind != CursorMove {
			t.Errorf("Kind = %v, want CursorMove", ev.Kind)
		}
		if ev.X != 12 || ev.Y != 34 {
			t.Errorf("event position = (%d, %d), want (12, 34)", ev.X, ev.Y)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received before timeout")
	}
}

func TestTickerMonitorStopsOnContextCancel(t *testing.T) {
	m := NewTickerMonitor(5*time.Millisecond, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())

	out := make(chan Event, 8)
	done := make(chan struct{})
	go func() {
		m.Run(ctx, out)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestTickerMonitorDefaultsIntervalWhenNonPositive(t *testing.T) {
	m := NewTickerMonitor(0, 0, 0)
	if m.Interval != 0 {
		t.Fatalf("constructor stored Interval = %v, want 0 (default applied in Run)", m.Interval)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	out := make(chan Event)

	done := make(chan struct{})
	go func() {
		m.Run(ctx, out)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context deadline")
	}
}
