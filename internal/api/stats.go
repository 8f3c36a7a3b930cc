package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"

	"sailtimer/pkg/tracker"
)

// StatsHandler reports cue delivery counters and process diagnostics.
type StatsHandler struct {
	tracker *tracker.Tracker
	started time.Time

	mu     sync.Mutex
	maxMem uint64
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t, started: time.Now()}
}

// ChannelStatsDTO is the per-channel view with a derived cache hit rate.
type ChannelStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	Success     int64 `json:"success"`
	Failures    int64 `json:"failures"`
	Dropped     int64 `json:"dropped"`
	HitRate     int64 `json:"hit_rate"`
}

// Diagnostics describes the server process.
type Diagnostics struct {
	MemoryMB    uint64 `json:"memory_mb"`
	MemoryMaxMB uint64 `json:"memory_max_mb"`
	Goroutines  int    `json:"goroutines"`
	UptimeSec   int64  `json:"uptime_sec"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Diagnostics Diagnostics                `json:"diagnostics"`
	Channels    map[string]ChannelStatsDTO `json:"channels"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := StatsResponse{
		Diagnostics: h.gatherDiagnostics(),
		Channels:    make(map[string]ChannelStatsDTO, len(snapshot)),
	}
	for channel, stats := range snapshot {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Channels[channel] = ChannelStatsDTO{
			CacheHits:   stats.CacheHits,
			CacheMisses: stats.CacheMisses,
			Success:     stats.Success,
			Failures:    stats.Failures,
			Dropped:     stats.Dropped,
			HitRate:     hitRate,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *StatsHandler) gatherDiagnostics() Diagnostics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	h.mu.Lock()
	if ms.Sys > h.maxMem {
		h.maxMem = ms.Sys
	}
	maxMem := h.maxMem
	h.mu.Unlock()

	return Diagnostics{
		MemoryMB:    bToMb(ms.Sys),
		MemoryMaxMB: bToMb(maxMem),
		Goroutines:  runtime.NumGoroutine(),
		UptimeSec:   int64(time.Since(h.started).Seconds()),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
