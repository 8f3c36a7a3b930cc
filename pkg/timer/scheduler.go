package timer

import (
	"context"
	"sync"
	"time"
)

// Cancel stops a repeating schedule. It is safe to call more than once
// and from inside the scheduled function.
type Cancel func()

// Scheduler runs fn every period until the returned Cancel is called.
// fn must never be invoked synchronously from ScheduleRepeating.
type Scheduler interface {
	ScheduleRepeating(period time.Duration, fn func()) Cancel
}

// TickerScheduler runs each schedule on its own time.Ticker goroutine.
// All schedules end when ctx is cancelled.
type TickerScheduler struct {
	ctx context.Context
	wg  sync.WaitGroup
}

// NewTickerScheduler creates a scheduler bound to ctx.
func NewTickerScheduler(ctx context.Context) *TickerScheduler {
	return &TickerScheduler{ctx: ctx}
}

// ScheduleRepeating implements Scheduler.
func (s *TickerScheduler) ScheduleRepeating(period time.Duration, fn func()) Cancel {
	stop := make(chan struct{})
	var once sync.Once

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				// A tick can race with cancel; re-check before running.
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(stop) })
	}
}

// Wait blocks until every schedule goroutine has exited.
func (s *TickerScheduler) Wait() {
	s.wg.Wait()
}
