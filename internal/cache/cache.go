// Package cache provides a bounded in-memory key/value cache with
// time-to-live expiry and least-recently-used eviction. Each source adapter
// and the title resolver own their own instance; instances are never shared.
package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultCapacity is the default maximum number of entries.
	DefaultCapacity = 250
	// DefaultTTL is the default entry time-to-live.
	DefaultTTL = 24 * time.Hour
)

// entry is a stored value with its insertion time. Entries are immutable;
// re-inserting under the same key replaces the entry.
type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
}

// Cache is a capacity-bounded TTL cache with LRU eviction. Expiry is lazy:
// stale entries are dropped when read, there is no background sweep.
// All methods are safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front = most recently used
	items    map[string]*list.Element

	// now is replaceable in tests to advance time without sleeping.
	now func() time.Time
}

// New creates a cache with the given capacity and TTL. Non-positive values
// fall back to the defaults.
func New[V any](capacity int, ttl time.Duration) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Get returns the value stored under key. An entry older than the TTL is
// deleted and reported as absent. A successful read refreshes the entry's
// recency order but never its value or insertion time.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	ent := elem.Value.(*entry[V])
	if c.now().Sub(ent.insertedAt) > c.ttl {
		c.order.Remove(elem)
		delete(c.items, key)
		slog.Debug("Cache entry expired", "key", key)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return ent.value, true
}

// Set stores value under key. If the cache is at capacity and the key is not
// already present, the least-recently-used entry is evicted first.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent := &entry[V]{key: key, value: value, insertedAt: c.now()}

	if elem, ok := c.items[key]; ok {
		elem.Value = ent
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			evicted := oldest.Value.(*entry[V])
			c.order.Remove(oldest)
			delete(c.items, evicted.key)
			slog.Debug("Cache entry evicted", "key", evicted.key, "capacity", c.capacity)
		}
	}

	c.items[key] = c.order.PushFront(ent)
}

// Delete removes the entry under key, reporting whether it existed.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(elem)
	delete(c.items, key)
	return true
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// Len returns the number of stored entries, counting entries that have
// expired but not yet been read.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
