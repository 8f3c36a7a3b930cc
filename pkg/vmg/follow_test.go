package vmg

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sailtimer/pkg/gps"
)

type fakeSource struct {
	mu       sync.Mutex
	onSample func(gps.Sample)
	onError  func(error)
	unsubbed bool
}

func (f *fakeSource) Subscribe(onSample func(gps.Sample), onError func(error)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSample = onSample
	f.onError = onError
	return func() {
		f.mu.Lock()
		f.unsubbed = true
		f.mu.Unlock()
	}
}

func (f *fakeSource) subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.onSample != nil
}

func TestFollow(t *testing.T) {
	src := &fakeSource{}
	c := NewCalculator(DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Follow(ctx, src, c, 40*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, src.subscribed, time.Second, time.Millisecond)

	src.onSample(gps.Sample{Latitude: 3, Longitude: 4})
	s, ok := c.Sample()
	require.True(t, ok)
	assert.Equal(t, 3.0, s.Latitude)

	src.onError(gps.ErrUnavailable)
	assert.ErrorIs(t, c.LastError(), gps.ErrUnavailable)

	src.onSample(gps.Sample{Latitude: 3, Longitude: 4})
	require.Eventually(t, func() bool {
		return c.LastError() == gps.ErrTimeout
	}, time.Second, 5*time.Millisecond, "silence is reported as a timeout")

	cancel()
	<-done
	src.mu.Lock()
	defer src.mu.Unlock()
	assert.True(t, src.unsubbed)
}
