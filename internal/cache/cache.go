// Package cache implements the bounded LRU page cache in front of the
// Searcher, structurally grounded on the teacher's container/list
// based LRU but keyed by query fingerprint rather than path, and
// invalidated by a generation counter rather than per-entry (spec's
// cache-invalidation design note).
package cache

import (
	"container/list"
	"sync"

	"github.com/standardbeagle/filedex/internal/types"
)

type entry struct {
	fingerprint uint64
	generation  uint64
	results     []types.SearchResult
}

// Cache is a thread-safe, fixed-capacity LRU of search result pages.
type Cache struct {
	mu         sync.Mutex
	capacity   int
	ll         *list.List
	items      map[uint64]*list.Element
	generation uint64
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[uint64]*list.Element),
	}
}

// Get returns the cached page for fingerprint if it is still current
// (its generation matches the cache's current generation).
func (c *Cache) Get(fingerprint uint64) ([]types.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[fingerprint]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if e.generation != c.generation {
		c.ll.Remove(el)
		delete(c.items, fingerprint)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return e.results, true
}

// Put stores results for fingerprint, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *Cache) Put(fingerprint uint64, results []types.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[fingerprint]; ok {
		el.Value.(*entry).results = results
		el.Value.(*entry).generation = c.generation
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{fingerprint: fingerprint, generation: c.generation, results: results})
	c.items[fingerprint] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).fingerprint)
		}
	}
}

// Invalidate bumps the generation counter, making every previously
// cached entry stale without having to scan or free it immediately.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
}

// Len returns the number of entries currently held, including stale
// ones not yet evicted by Get.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
