package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry(time.Hour)

	s := r.GetOrCreate("s1")
	require.NotNil(t, s)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, StateWelcome, s.State)

	// Same ID returns the same session.
	assert.Same(t, s, r.GetOrCreate("s1"))
	assert.Equal(t, 1, r.Len())

	// A different ID gets its own session.
	assert.NotSame(t, s, r.GetOrCreate("s2"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistryEvictIdle(t *testing.T) {
	r := NewRegistry(30 * time.Minute)
	start := time.Now()
	r.GetOrCreate("stale")
	time.Sleep(10 * time.Millisecond)
	fresh := r.GetOrCreate("fresh")

	// 30m+5ms after start: stale is past the TTL, fresh is well inside it.
	r.evictIdle(start.Add(30*time.Minute + 5*time.Millisecond))

	assert.Equal(t, 1, r.Len())
	assert.Same(t, fresh, r.GetOrCreate("fresh"))

	// The evicted ID starts over from the welcome state.
	revived := r.GetOrCreate("stale")
	assert.Equal(t, StateWelcome, revived.State)
}

func TestRegistryEvictIdleTouchedSessionSurvives(t *testing.T) {
	r := NewRegistry(30 * time.Minute)
	r.GetOrCreate("s1")
	start := time.Now()

	// Activity halfway through the window resets the idle clock.
	time.Sleep(time.Millisecond)
	r.GetOrCreate("s1")

	r.evictIdle(start.Add(30 * time.Minute))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ids := []string{"a", "b", "c"}
			for j := 0; j < 50; j++ {
				r.GetOrCreate(ids[(n+j)%len(ids)])
				if j%10 == 0 {
					r.evictIdle(time.Now().Add(-time.Minute))
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, r.Len())
}
