package timer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerScheduler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewTickerScheduler(ctx)
	var n atomic.Int32
	stop := s.ScheduleRepeating(5*time.Millisecond, func() { n.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n.Load() < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", n.Load())
	}

	stop()
	stop()
	s.Wait()
	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	if n.Load() != after {
		t.Errorf("ticks after cancel: %d -> %d", after, n.Load())
	}
}

func TestTickerScheduler_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewTickerScheduler(ctx)
	s.ScheduleRepeating(time.Millisecond, func() {})
	cancel()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("schedule goroutine did not exit on context cancel")
	}
}
