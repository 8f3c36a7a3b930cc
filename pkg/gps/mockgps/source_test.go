package mockgps

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sailtimer/pkg/geo"
	"sailtimer/pkg/gps"
)

func TestSource_Advance(t *testing.T) {
	s := NewSource(Config{StartLat: 50, StartLon: -1, Heading: 0, SpeedKnots: 6})

	// Six knots for ten minutes is one nautical mile.
	sample := s.advance(10 * time.Minute)

	moved := geo.HaversineDistanceKm(50, -1, sample.Latitude, sample.Longitude)
	assert.InDelta(t, 1.852, moved, 1e-6)
	assert.Greater(t, sample.Latitude, 50.0)
	require.NotNil(t, sample.Speed)
	assert.InDelta(t, 6.0, geo.MetersPerSecondToKnots(*sample.Speed), 1e-3)
	require.NotNil(t, sample.Heading)
	assert.Equal(t, 0.0, *sample.Heading)
	assert.Equal(t, 5.0, sample.Accuracy)
}

func TestSource_Tacks(t *testing.T) {
	s := NewSource(Config{Heading: 45, SpeedKnots: 5, TackEvery: 2 * time.Second})

	h := func(sm gps.Sample) float64 { return *sm.Heading }

	assert.Equal(t, 45.0, h(s.advance(time.Second)))
	assert.Equal(t, 315.0, h(s.advance(time.Second)), "first tack turns to port")
	assert.Equal(t, 315.0, h(s.advance(time.Second)))
	assert.Equal(t, 45.0, h(s.advance(time.Second)), "second tack turns back")
}

func TestSource_Jitter(t *testing.T) {
	s := NewSource(Config{SpeedKnots: 10, Jitter: 0.1})
	for i := 0; i < 50; i++ {
		knots := geo.MetersPerSecondToKnots(*s.advance(time.Second).Speed)
		assert.GreaterOrEqual(t, knots, 9.0-1e-6)
		assert.LessOrEqual(t, knots, 11.0+1e-6)
	}
}

func TestSource_Subscribe(t *testing.T) {
	s := NewSource(Config{StartLat: 1, StartLon: 2, SpeedKnots: 4, Interval: 10 * time.Millisecond})

	var mu sync.Mutex
	var got []gps.Sample
	unsub := s.Subscribe(func(sm gps.Sample) {
		mu.Lock()
		got = append(got, sm)
		mu.Unlock()
	}, nil)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 3
	}, time.Second, 5*time.Millisecond)
	unsub()
	unsub()

	mu.Lock()
	n := len(got)
	first := got[0]
	mu.Unlock()
	assert.Equal(t, 1.0, first.Latitude, "first sample is the start position")

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, n, len(got), "no samples after unsubscribe")
}
