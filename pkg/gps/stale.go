package gps

import (
	"sync"
	"time"
)

// Watchdog reports ErrTimeout when no fix has arrived for the configured
// period. It is fed from the sample callback and polled by a ticker.
type Watchdog struct {
	mu       sync.Mutex
	after    time.Duration
	last     time.Time
	reported bool
	now      func() time.Time
}

// NewWatchdog creates a Watchdog. A zero period disables it.
func NewWatchdog(after time.Duration) *Watchdog {
	return &Watchdog{after: after, now: time.Now, last: time.Now()}
}

// Feed records that a fix arrived.
func (w *Watchdog) Feed() {
	w.mu.Lock()
	w.last = w.now()
	w.reported = false
	w.mu.Unlock()
}

// Check returns ErrTimeout once per silent period.
func (w *Watchdog) Check() error {
	if w.after <= 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reported || w.now().Sub(w.last) < w.after {
		return nil
	}
	w.reported = true
	return ErrTimeout
}
