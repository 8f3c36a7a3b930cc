package gps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchdog(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWatchdog(10 * time.Second)
	w.now = func() time.Time { return now }
	w.Feed()

	now = now.Add(5 * time.Second)
	assert.NoError(t, w.Check())

	now = now.Add(6 * time.Second)
	assert.ErrorIs(t, w.Check(), ErrTimeout)
	assert.NoError(t, w.Check(), "reported once per silent period")

	w.Feed()
	now = now.Add(11 * time.Second)
	assert.ErrorIs(t, w.Check(), ErrTimeout)
}

func TestWatchdog_Disabled(t *testing.T) {
	w := NewWatchdog(0)
	w.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.NoError(t, w.Check())
}

func TestSample_Optional(t *testing.T) {
	s := Sample{Latitude: 1, Longitude: 2}
	assert.False(t, s.HasSpeed())
	assert.False(t, s.HasHeading())

	s.Speed = Float(3)
	s.Heading = Float(90)
	assert.True(t, s.HasSpeed())
	assert.True(t, s.HasHeading())
	assert.Equal(t, 3.0, *s.Speed)
}
