package vmg

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sailtimer/pkg/geo"
	"sailtimer/pkg/gps"
)

func knots(k float64) *float64 { return gps.Float(k / geo.KnotsPerMeterPerSecond) }

func newTestCalculator() *Calculator {
	c := NewCalculator(DefaultOptions())
	c.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestCalculator_NoResultWithoutFixOrMarks(t *testing.T) {
	c := newTestCalculator()
	_, ok := c.Result()
	assert.False(t, ok)

	c.UpdateSample(gps.Sample{Latitude: 0, Longitude: 0})
	_, ok = c.Result()
	assert.False(t, ok, "a fix alone gives no result")
}

func TestCalculator_SetLeewardMark(t *testing.T) {
	c := newTestCalculator()

	_, err := c.SetLeewardMark()
	assert.ErrorIs(t, err, ErrNoFix)
	assert.Nil(t, c.Marks().Leeward)

	c.UpdateSample(gps.Sample{Latitude: 50.1, Longitude: -1.2})
	wp, err := c.SetLeewardMark()
	require.NoError(t, err)

	assert.Equal(t, KindLeeward, wp.Kind)
	assert.Equal(t, "Leeward Mark", wp.Name)
	assert.Equal(t, 50.1, wp.Lat)
	assert.Equal(t, -1.2, wp.Lon)
	assert.NotEmpty(t, wp.ID)
	assert.Equal(t, c.now(), wp.Timestamp)

	r, ok := c.Result()
	require.True(t, ok)
	assert.Equal(t, LegLeeward, r.CurrentLeg, "a single mark is the current leg")
	assert.Equal(t, 5.0, r.CurrentSpeedKnots, "fallback speed")
	assert.Equal(t, 45.0, r.CurrentHeadingDegrees, "fallback heading")
}

func TestCalculator_SetWindwardMark(t *testing.T) {
	c := newTestCalculator()

	_, err := c.SetWindwardMark(1, 0)
	assert.ErrorIs(t, err, ErrNoLeewardMark)

	c.UpdateSample(gps.Sample{Latitude: 0, Longitude: 0})
	_, err = c.SetLeewardMark()
	require.NoError(t, err)

	wp, err := c.SetWindwardMark(1.0, 0)
	require.NoError(t, err)
	assert.Equal(t, KindWindward, wp.Kind)
	assert.Equal(t, "Windward Mark", wp.Name)
	// One nautical mile is one arc-minute of latitude on this sphere.
	assert.InDelta(t, 0.016655, wp.Lat, 1e-5)
	assert.InDelta(t, 0, wp.Lon, 1e-9)
	assert.InDelta(t, 1.852, geo.HaversineDistanceKm(0, 0, wp.Lat, wp.Lon), 1e-6)
}

func TestCalculator_SetWindwardMarkInvalid(t *testing.T) {
	c := newTestCalculator()
	c.UpdateSample(gps.Sample{})
	_, err := c.SetLeewardMark()
	require.NoError(t, err)

	tests := []struct {
		name     string
		distance string
		heading  string
	}{
		{"Empty distance", "", "0"},
		{"Text heading", "1", "north"},
		{"NaN", "NaN", "0"},
		{"Inf", "1", "Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SetWindwardMarkInput(tt.distance, tt.heading)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
			assert.Nil(t, c.Marks().Windward, "no mark on invalid input")
		})
	}

	_, err = c.SetWindwardMark(math.NaN(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	wp, err := c.SetWindwardMarkInput(" 0.5 ", "90")
	require.NoError(t, err)
	assert.Greater(t, wp.Lon, 0.0)
}

func TestCalculator_LegSelection(t *testing.T) {
	c := newTestCalculator()
	c.UpdateSample(gps.Sample{Latitude: 0, Longitude: 0})
	_, err := c.SetLeewardMark()
	require.NoError(t, err)
	_, err = c.SetWindwardMark(1, 0)
	require.NoError(t, err)

	tests := []struct {
		name string
		lat  float64
		want Leg
	}{
		{"Near leeward", 0.001, LegLeeward},
		{"Near windward", 0.015, LegWindward},
		{"Past windward", 0.03, LegWindward},
		{"South of leeward", -0.01, LegLeeward},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.UpdateSample(gps.Sample{Latitude: tt.lat, Longitude: 0, Speed: knots(6), Heading: gps.Float(0)})
			r, ok := c.Result()
			require.True(t, ok)
			assert.Equal(t, tt.want, r.CurrentLeg)
		})
	}
}

func TestCalculator_VMGValues(t *testing.T) {
	c := newTestCalculator()
	c.UpdateSample(gps.Sample{Latitude: 0, Longitude: 0})
	_, _ = c.SetLeewardMark()
	_, _ = c.SetWindwardMark(1, 0)

	c.UpdateSample(gps.Sample{Latitude: 0.005, Longitude: 0, Speed: knots(6), Heading: gps.Float(0)})
	r, ok := c.Result()
	require.True(t, ok)

	assert.InDelta(t, 6.0, r.CurrentSpeedKnots, 1e-9)
	assert.InDelta(t, 6.0, r.VMGToWindward, 1e-6)
	assert.InDelta(t, -6.0, r.VMGToLeeward, 1e-6)
	assert.InDelta(t, 0, r.BearingToWindward, 1e-6)
	assert.InDelta(t, 180, r.BearingToLeeward, 1e-6)
	assert.InDelta(t, 0.7, r.DistanceToWindwardNm, 0.01)
	assert.InDelta(t, 0.3, r.DistanceToLeewardNm, 0.01)

	// Beam reach: nothing made good in either direction.
	c.UpdateSample(gps.Sample{Latitude: 0.005, Longitude: 0, Speed: knots(6), Heading: gps.Float(90)})
	r, _ = c.Result()
	assert.InDelta(t, 0, r.VMGToWindward, 1e-6)
}

func TestCalculator_ResetMarks(t *testing.T) {
	c := newTestCalculator()
	c.UpdateSample(gps.Sample{Latitude: 0, Longitude: 0, Speed: knots(5)})
	_, _ = c.SetLeewardMark()
	_, _ = c.SetWindwardMark(1, 0)
	_, ok := c.Result()
	require.True(t, ok)

	c.ResetMarks()

	r, ok := c.Result()
	assert.False(t, ok)
	assert.Equal(t, Result{}, r)
	assert.Equal(t, LegNone, r.CurrentLeg)
	assert.Equal(t, Marks{}, c.Marks())

	_, hasFix := c.Sample()
	assert.True(t, hasFix, "the fix survives a mark reset")
}

func TestCalculator_MarksAreCopies(t *testing.T) {
	c := newTestCalculator()
	c.UpdateSample(gps.Sample{Latitude: 1, Longitude: 1})
	_, _ = c.SetLeewardMark()

	m := c.Marks()
	m.Leeward.Lat = 99
	assert.Equal(t, 1.0, c.Marks().Leeward.Lat)
}

func TestCalculator_SailData(t *testing.T) {
	c := newTestCalculator()

	d := c.SailData()
	assert.False(t, d.HasFix)
	assert.Equal(t, "N/A", d.Compass)
	assert.Equal(t, GPSLimited, d.GPSStatus)

	c.ReportError(gps.ErrPermissionDenied)
	assert.Equal(t, gps.ErrPermissionDenied.Error(), c.SailData().Error)

	c.UpdateSample(gps.Sample{Latitude: 1, Longitude: 2, Accuracy: 4, Speed: gps.Float(5), Heading: gps.Float(93)})
	d = c.SailData()
	assert.True(t, d.HasFix)
	assert.Empty(t, d.Error, "a fix clears the error")
	assert.NoError(t, c.LastError())
	require.NotNil(t, d.SpeedKnots)
	assert.InDelta(t, 9.7192, *d.SpeedKnots, 1e-4)
	assert.InDelta(t, 18.0, *d.SpeedKmh, 1e-9)
	assert.InDelta(t, 5.0, *d.SpeedMs, 1e-9)
	assert.Equal(t, "E", d.Compass)
	assert.InDelta(t, 9.7192*math.Cos(math.Pi/4), d.DemoVMG, 1e-4)
	assert.Equal(t, 4.0, d.Accuracy)
	assert.Equal(t, GPSActive, d.GPSStatus)
	assert.Empty(t, d.HeadingHint)

	c.UpdateSample(gps.Sample{Latitude: 1, Longitude: 2})
	d = c.SailData()
	assert.Nil(t, d.SpeedKnots)
	assert.Nil(t, d.Heading)
	assert.Equal(t, "N/A", d.Compass)
	assert.Equal(t, 0.0, d.DemoVMG)
	assert.Equal(t, GPSLimited, d.GPSStatus)
	assert.Equal(t, "No heading data available", d.HeadingHint)
}

func TestCalculator_GPSStatus(t *testing.T) {
	tests := []struct {
		name   string
		sample gps.Sample
		status string
		hint   string
	}{
		{name: "SpeedAndHeading", sample: gps.Sample{Speed: gps.Float(2), Heading: gps.Float(10)}, status: GPSActive},
		{name: "SpeedOnly", sample: gps.Sample{Speed: gps.Float(2)}, status: GPSActive, hint: "No heading data available"},
		{name: "HeadingOnly", sample: gps.Sample{Heading: gps.Float(10)}, status: GPSActive},
		{name: "PositionOnly", sample: gps.Sample{Latitude: 1}, status: GPSLimited, hint: "No heading data available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCalculator()
			c.UpdateSample(tt.sample)
			d := c.SailData()
			assert.Equal(t, tt.status, d.GPSStatus)
			assert.Equal(t, tt.hint, d.HeadingHint)
		})
	}
}

func TestCalculator_ReportErrorNotifies(t *testing.T) {
	c := newTestCalculator()

	updates := make(chan Update, 4)
	unsub := c.ListenUpdates(func(u Update) { updates <- u })
	defer unsub()
	<-updates // replay

	c.ReportError(gps.ErrTimeout)
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("no update after ReportError")
	}
	assert.Equal(t, gps.ErrTimeout.Error(), c.SailData().Error)
}

func TestCalculator_Listen(t *testing.T) {
	c := newTestCalculator()

	var mu sync.Mutex
	var oks []bool
	unsub := c.Listen(func(_ Result, ok bool) {
		mu.Lock()
		oks = append(oks, ok)
		mu.Unlock()
	})

	c.UpdateSample(gps.Sample{})
	_, _ = c.SetLeewardMark()
	c.ResetMarks()
	unsub()
	c.UpdateSample(gps.Sample{})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, false, true, false}, oks, "replay, sample, mark, reset")
}
