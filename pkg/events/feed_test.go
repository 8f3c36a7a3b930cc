package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_ListenPublish(t *testing.T) {
	feed := NewFeed[int](false)

	var got []int
	unregister := feed.Listen(func(v int) { got = append(got, v) })
	assert.Equal(t, 1, feed.Len())

	feed.Publish(1)
	feed.Publish(2)
	assert.Equal(t, []int{1, 2}, got)

	unregister()
	unregister() // second call is harmless
	assert.Equal(t, 0, feed.Len())

	feed.Publish(3)
	assert.Equal(t, []int{1, 2}, got)
}

func TestFeed_Replay(t *testing.T) {
	feed := NewFeed[string](true)

	var first []string
	feed.Listen(func(v string) { first = append(first, v) })
	assert.Empty(t, first, "nothing to replay before the first publish")

	feed.Publish("5:00")
	feed.Publish("4:59")

	var late []string
	feed.Listen(func(v string) { late = append(late, v) })
	require.Len(t, late, 1)
	assert.Equal(t, "4:59", late[0])
}

func TestFeed_NoReplay(t *testing.T) {
	feed := NewFeed[string](false)
	feed.Publish("ignored")

	called := false
	feed.Listen(func(string) { called = true })
	assert.False(t, called)
}

func TestFeed_ListenerMayUnregisterItself(t *testing.T) {
	feed := NewFeed[int](false)

	var unregister func()
	count := 0
	unregister = feed.Listen(func(int) {
		count++
		unregister()
	})

	feed.Publish(1)
	feed.Publish(2)
	assert.Equal(t, 1, count)
}

func TestFeed_Concurrent(t *testing.T) {
	feed := NewFeed[int](true)

	var mu sync.Mutex
	total := 0
	feed.Listen(func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			feed.Publish(1)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 50, total)
}

func TestFeed_NilListenerPanics(t *testing.T) {
	feed := NewFeed[int](false)
	assert.Panics(t, func() { feed.Listen(nil) })
}
