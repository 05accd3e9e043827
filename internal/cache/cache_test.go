package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	current time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.current
}

func (f *fakeClock) Advance(d time.Duration) {
	f.current = f.current.Add(d)
}

func newTestCache(t *testing.T, capacity int, ttl time.Duration) (*Cache[string], *fakeClock) {
	t.Helper()

	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := New[string](capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Hour)

	c.Set("isbn:9780135957059", "pragprog")

	got, ok := c.Get("isbn:9780135957059")
	require.True(t, ok)
	assert.Equal(t, "pragprog", got)
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Hour)

	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	c, clock := newTestCache(t, 10, time.Hour)

	c.Set("k", "v")
	require.Equal(t, 1, c.Len())

	clock.Advance(59 * time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry should still be live before TTL")

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry should expire after TTL")
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on read")
}

func TestReinsertReplacesEntry(t *testing.T) {
	c, clock := newTestCache(t, 10, time.Hour)

	c.Set("k", "old")
	clock.Advance(50 * time.Minute)
	c.Set("k", "new")

	// Replacement resets the insertion time, so the entry survives past
	// the original TTL horizon.
	clock.Advance(30 * time.Minute)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, c.Len())
}

func TestLRUEviction(t *testing.T) {
	c, _ := newTestCache(t, 3, time.Hour)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	// Touch "a" so "b" becomes the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", "4")

	_, ok = c.Get("b")
	assert.False(t, ok, "least-recently-used entry should be evicted")
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "key %q should survive eviction", key)
	}
	assert.Equal(t, 3, c.Len())
}

func TestEvictionOnlyWhenKeyIsNew(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Hour)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "updated")

	_, ok := c.Get("b")
	assert.True(t, ok, "updating an existing key must not evict")
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "updated", got)
}

func TestRepeatedReadsAreIdempotent(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Hour)

	c.Set("k", "v")
	for i := 0; i < 5; i++ {
		got, ok := c.Get("k")
		require.True(t, ok, "read %d", i)
		assert.Equal(t, "v", got)
	}
	assert.Equal(t, 1, c.Len())
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Hour)

	c.Set("k", "v")
	assert.True(t, c.Delete("k"))
	assert.False(t, c.Delete("k"), "second delete reports missing key")
	assert.Equal(t, 0, c.Len())
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Hour)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	require.Equal(t, 5, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("k0")
	assert.False(t, ok)
}

func TestDefaultsApplied(t *testing.T) {
	c := New[int](0, 0)
	assert.Equal(t, DefaultCapacity, c.capacity)
	assert.Equal(t, DefaultTTL, c.ttl)
}
