// Package tracker counts how cues and speech requests fare per channel
// ("speech", "tone", or a TTS engine name).
package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker tracks delivery statistics per channel.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*Stats
}

// Stats holds the counters for one channel. Fields are accessed atomically.
type Stats struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	Success     int64 `json:"success"`
	Failures    int64 `json:"failures"`
	// Dropped counts cues that went stale in the queue before they could be spoken.
	Dropped int64 `json:"dropped"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*Stats),
	}
}

func (t *Tracker) getStats(channel string) *Stats {
	t.mu.RLock()
	s, ok := t.stats[channel]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.stats[channel]; ok {
		return s
	}
	s = &Stats{}
	t.stats[channel] = s
	return s
}

func (t *Tracker) TrackCacheHit(channel string) {
	atomic.AddInt64(&t.getStats(channel).CacheHits, 1)
}

func (t *Tracker) TrackCacheMiss(channel string) {
	atomic.AddInt64(&t.getStats(channel).CacheMisses, 1)
}

func (t *Tracker) TrackSuccess(channel string) {
	atomic.AddInt64(&t.getStats(channel).Success, 1)
}

func (t *Tracker) TrackFailure(channel string) {
	atomic.AddInt64(&t.getStats(channel).Failures, 1)
}

func (t *Tracker) TrackDropped(channel string) {
	atomic.AddInt64(&t.getStats(channel).Dropped, 1)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]Stats, len(t.stats))
	for k, v := range t.stats {
		result[k] = Stats{
			CacheHits:   atomic.LoadInt64(&v.CacheHits),
			CacheMisses: atomic.LoadInt64(&v.CacheMisses),
			Success:     atomic.LoadInt64(&v.Success),
			Failures:    atomic.LoadInt64(&v.Failures),
			Dropped:     atomic.LoadInt64(&v.Dropped),
		}
	}
	return result
}
