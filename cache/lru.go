// Package cache provides a memory-budgeted LRU cache used by the render
// cache and the mask provider. Eviction is by least-recent use once the
// byte budget is exceeded; pinned entries are never evicted.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultBudgetMB is the default memory budget in megabytes.
const DefaultBudgetMB = 256

const bytesPerMB = 1024 * 1024

// LRU is a thread-safe LRU cache with a byte budget.
//
// Entry sizes are supplied by the caller at Put time. When the total size
// exceeds the budget, least recently used unpinned entries are evicted.
// Pinning marks an entry as in use by an in-flight computation; pinned
// entries count against the budget but survive eviction.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     *list.List // front = most recent
	size    int64
	budget  int64

	// Statistics (atomic for zero-allocation reads)
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry[K comparable, V any] struct {
	key     K
	value   V
	size    int64
	pins    int
	element *list.Element
}

// Stats contains cache statistics for monitoring.
type Stats struct {
	// Size is the current memory usage in bytes.
	Size int64
	// Budget is the memory budget in bytes.
	Budget int64
	// Entries is the number of cached entries.
	Entries int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// Evictions is the number of entries evicted.
	Evictions uint64
}

// HitRate returns the hit rate in [0, 1].
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// New creates a cache with the given budget in megabytes.
// Non-positive budgets fall back to DefaultBudgetMB.
func New[K comparable, V any](budgetMB int) *LRU[K, V] {
	if budgetMB <= 0 {
		budgetMB = DefaultBudgetMB
	}
	return &LRU[K, V]{
		entries: make(map[K]*entry[K, V]),
		lru:     list.New(),
		budget:  int64(budgetMB) * bytesPerMB,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(e.element)
	v := e.value
	c.mu.Unlock()
	c.hits.Add(1)
	return v, true
}

// Put stores a value with the given size in bytes, evicting as needed.
// Entries larger than the whole budget are not cached.
// An existing entry under the same key is replaced.
func (c *LRU[K, V]) Put(key K, value V, size int64) {
	if size <= 0 || size > c.budget {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.size -= old.size
		old.value = value
		old.size = size
		c.size += size
		c.lru.MoveToFront(old.element)
		c.evictLocked()
		return
	}

	e := &entry[K, V]{key: key, value: value, size: size}
	e.element = c.lru.PushFront(e)
	c.entries[key] = e
	c.size += size
	c.evictLocked()
}

// Pin marks the entry as in use so it cannot be evicted. Returns false if
// the key is not cached. Each Pin must be paired with an Unpin.
func (c *LRU[K, V]) Pin(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	e.pins++
	return true
}

// Unpin releases a pin.
func (c *LRU[K, V]) Unpin(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.pins > 0 {
		e.pins--
	}
}

// Remove drops an entry regardless of pin state.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.removeLocked(e)
	}
}

// Clear drops all entries.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*entry[K, V])
	c.lru.Init()
	c.size = 0
}

// EvictOldest force-evicts the least recently used unpinned entry,
// regardless of budget. Returns false when nothing is evictable.
func (c *LRU[K, V]) EvictOldest() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.lru.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry[K, V])
		if e.pins == 0 {
			c.removeLocked(e)
			c.evictions.Add(1)
			return true
		}
	}
	return false
}

// Size returns the current memory usage in bytes.
func (c *LRU[K, V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Budget returns the memory budget in bytes.
func (c *LRU[K, V]) Budget() int64 { return c.budget }

// EntryCount returns the number of cached entries.
func (c *LRU[K, V]) EntryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	size := c.size
	n := len(c.entries)
	c.mu.Unlock()
	return Stats{
		Size:      size,
		Budget:    c.budget,
		Entries:   n,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// evictLocked removes unpinned LRU entries until the budget is met.
// The caller must hold c.mu.
func (c *LRU[K, V]) evictLocked() {
	el := c.lru.Back()
	for c.size > c.budget && el != nil {
		prev := el.Prev()
		e := el.Value.(*entry[K, V])
		if e.pins == 0 {
			c.removeLocked(e)
			c.evictions.Add(1)
		}
		el = prev
	}
}

// removeLocked unlinks an entry. The caller must hold c.mu.
func (c *LRU[K, V]) removeLocked(e *entry[K, V]) {
	c.lru.Remove(e.element)
	delete(c.entries, e.key)
	c.size -= e.size
}
