// Package archive persists and deduplicates evaluation results. The
// in-memory cache lets the engine skip re-executing a chromosome whose
// action sequence was already run this session; the SQLite archive keeps
// a durable record of every evaluation across runs.
package archive

import (
	"sync"

	"github.com/uievolve/uievolve/pkg/trace"
)

// CacheStats counts cache traffic.
type CacheStats struct {
	Hits   int64
	Misses int64
	Size   int
}

// EvalCache is an in-memory, fingerprint-keyed evaluation cache with LRU
// eviction. Crossover and cloning regularly reproduce an action sequence
// the run has already executed; a hit saves a full browser session.
type EvalCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*cacheEntry
	lru      *lruList
	stats    CacheStats
}

type cacheEntry struct {
	trace   *trace.Trace
	fitness float64
	element *lruElement
}

type lruElement struct {
	key  string
	prev *lruElement
	next *lruElement
}

type lruList struct {
	head *lruElement
	tail *lruElement
}

func newLRUList() *lruList {
	head := &lruElement{}
	tail := &lruElement{}
	head.next = tail
	tail.prev = head
	return &lruList{head: head, tail: tail}
}

func (l *lruList) moveToFront(elem *lruElement) {
	if elem.prev == l.head {
		return
	}
	elem.prev.next = elem.next
	elem.next.prev = elem.prev
	elem.prev = l.head
	elem.next = l.head.next
	l.head.next.prev = elem
	l.head.next = elem
}

func (l *lruList) pushFront(key string) *lruElement {
	elem := &lruElement{key: key}
	elem.prev = l.head
	elem.next = l.head.next
	l.head.next.prev = elem
	l.head.next = elem
	return elem
}

func (l *lruList) removeElement(elem *lruElement) {
	elem.prev.next = elem.next
	elem.next.prev = elem.prev
}

func (l *lruList) back() *lruElement {
	if l.tail.prev == l.head {
		return nil
	}
	return l.tail.prev
}

// NewEvalCache builds a cache holding at most capacity results. A
// capacity of 0 or less falls back to 1024.
func NewEvalCache(capacity int) *EvalCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &EvalCache{
		capacity: capacity,
		entries:  make(map[string]*cacheEntry),
		lru:      newLRUList(),
	}
}

// Lookup returns the cached trace and fitness for a chromosome
// fingerprint.
func (c *EvalCache) Lookup(fingerprint string) (*trace.Trace, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		c.stats.Misses++
		return nil, 0, false
	}
	c.lru.moveToFront(entry.element)
	c.stats.Hits++
	return entry.trace, entry.fitness, true
}

// Store caches the result of an evaluation, evicting the least recently
// used entry when full.
func (c *EvalCache) Store(fingerprint string, tr *trace.Trace, fitness float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[fingerprint]; ok {
		entry.trace, entry.fitness = tr, fitness
		c.lru.moveToFront(entry.element)
		return
	}

	if len(c.entries) >= c.capacity {
		if oldest := c.lru.back(); oldest != nil {
			c.lru.removeElement(oldest)
			delete(c.entries, oldest.key)
		}
	}
	c.entries[fingerprint] = &cacheEntry{
		trace:   tr,
		fitness: fitness,
		element: c.lru.pushFront(fingerprint),
	}
}

// Stats returns a snapshot of cache traffic.
func (c *EvalCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}
