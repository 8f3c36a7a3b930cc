package geo

import "sync"

// TrackBuffer derives course over ground from a rolling window of fixes.
// Receivers that report position without a heading (GGA-only NMEA, some
// browsers) use it to fill the gap.
type TrackBuffer struct {
	mu         sync.Mutex
	samples    []Point
	windowSize int
	minKm      float64
}

// NewTrackBuffer keeps windowSize fixes and ignores movement shorter than minKm,
// which is mostly GPS jitter while drifting.
func NewTrackBuffer(windowSize int, minKm float64) *TrackBuffer {
	if windowSize < 2 {
		windowSize = 2
	}
	return &TrackBuffer{
		windowSize: windowSize,
		minKm:      minKm,
	}
}

// Push records p and returns the bearing from the oldest to the newest fix.
// ok is false until the window spans at least minKm.
func (b *TrackBuffer) Push(p Point) (course float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = append(b.samples, p)
	if len(b.samples) > b.windowSize {
		b.samples = b.samples[1:]
	}
	if len(b.samples) < 2 {
		return 0, false
	}

	first, last := b.samples[0], b.samples[len(b.samples)-1]
	if DistanceKm(first, last) < b.minKm {
		return 0, false
	}
	return Bearing(first, last), true
}

// Reset clears the buffer history.
func (b *TrackBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = nil
}
