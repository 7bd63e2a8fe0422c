package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAllow_RejectsOverLimit(t *testing.T) {
	const limit = 5
	l := New(time.Minute, Limits{CategorySearch: limit})

	// L requests pass, the (L+1)-th is rejected.
	for i := 0; i < limit; i++ {
		d := l.Allow("client-1", CategorySearch)
		require.True(t, d.Allowed, "request %d should pass", i+1)
		assert.Equal(t, limit-i-1, d.Remaining)
	}

	d := l.Allow("client-1", CategorySearch)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)
}

func TestAllow_WindowReset(t *testing.T) {
	clock := newFakeClock()
	l := New(time.Minute, Limits{CategoryUpload: 2}, WithClock(clock.Now))

	require.True(t, l.Allow("c", CategoryUpload).Allowed)
	require.True(t, l.Allow("c", CategoryUpload).Allowed)
	require.False(t, l.Allow("c", CategoryUpload).Allowed)

	clock.Advance(61 * time.Second)

	d := l.Allow("c", CategoryUpload)
	assert.True(t, d.Allowed, "count resets when the window boundary is crossed")
	assert.Equal(t, 1, d.Remaining)
}

func TestAllow_BoundaryBurst(t *testing.T) {
	// Fixed windows permit up to 2x the limit around a boundary.
	// This pins the documented behavior.
	clock := newFakeClock()
	l := New(time.Minute, Limits{CategorySearch: 3}, WithClock(clock.Now))

	clock.Advance(55 * time.Second)
	for i := 0; i < 3; i++ {
		require.True(t, l.Allow("c", CategorySearch).Allowed)
	}

	clock.Advance(10 * time.Second) // crosses the boundary
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("c", CategorySearch).Allowed)
	}
	assert.False(t, l.Allow("c", CategorySearch).Allowed)
}

func TestAllow_ClientsAndCategoriesIndependent(t *testing.T) {
	l := New(time.Minute, Limits{CategoryUpload: 1, CategorySearch: 1})

	require.True(t, l.Allow("alice", CategoryUpload).Allowed)
	assert.False(t, l.Allow("alice", CategoryUpload).Allowed)

	// Other clients and other categories are unaffected.
	assert.True(t, l.Allow("bob", CategoryUpload).Allowed)
	assert.True(t, l.Allow("alice", CategorySearch).Allowed)
}

func TestAllow_UnconfiguredCategoryUnlimited(t *testing.T) {
	l := New(time.Minute, Limits{CategoryUpload: 1})

	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("c", CategorySearch).Allowed)
	}
}

func TestDefaultLimits(t *testing.T) {
	limits := DefaultLimits()
	assert.Equal(t, 10, limits[CategoryUpload])
	assert.Equal(t, 5, limits[CategoryBatchUpload])
	assert.Equal(t, 100, limits[CategorySearch])
	assert.Equal(t, 20, limits[CategoryManagement])
}

func TestRejectionsCounter(t *testing.T) {
	l := New(time.Minute, Limits{CategoryUpload: 1})

	l.Allow("c", CategoryUpload)
	l.Allow("c", CategoryUpload)
	l.Allow("c", CategoryUpload)

	assert.Equal(t, uint64(2), l.Rejections()[CategoryUpload])
}

func TestPrune(t *testing.T) {
	clock := newFakeClock()
	l := New(time.Minute, Limits{CategoryUpload: 5}, WithClock(clock.Now))

	l.Allow("old", CategoryUpload)
	clock.Advance(3 * time.Minute)
	l.Allow("fresh", CategoryUpload)

	assert.Equal(t, 1, l.Prune())
	// Pruned bucket starts over.
	d := l.Allow("old", CategoryUpload)
	assert.True(t, d.Allowed)
	assert.Equal(t, 4, d.Remaining)
}

func TestConcurrentArrivalAtBoundary(t *testing.T) {
	const limit = 50
	l := New(time.Minute, Limits{CategorySearch: limit})

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("c", CategorySearch).Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	assert.Equal(t, limit, count, "exactly the limit may pass within one window")
}

func TestLimitError(t *testing.T) {
	err := &LimitError{Category: CategorySearch, RetryAfter: 42 * time.Second}
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, fmt.Sprintf("rate limit exceeded for %s, retry in 42s", CategorySearch), err.Error())
}
