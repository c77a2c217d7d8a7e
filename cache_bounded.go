package hammock

import (
	"sync"
	"time"
)

// DefaultBoundedCacheSize is the capacity used when NewBoundedCache gets a
// non-positive size.
const DefaultBoundedCacheSize = 1000

// BoundedCache is an LRU cache holding at most maxSize entries. Expiry
// follows the entry's CacheOptions; when full, the least recently used
// entry is evicted. It is safe for concurrent use.
type BoundedCache struct {
	mu      sync.Mutex
	store   map[string]*boundedEntry
	maxSize int

	// head is most recently used, tail least.
	head, tail *boundedEntry

	hits      int64
	misses    int64
	evictions int64

	now func() time.Time
}

type boundedEntry struct {
	key        string
	entry      *CacheEntry
	prev, next *boundedEntry
}

// CacheStats is a snapshot of BoundedCache counters.
type CacheStats struct {
	Size      int
	Capacity  int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRatio  float64
}

// NewBoundedCache creates an LRU cache with room for maxSize entries.
func NewBoundedCache(maxSize int) *BoundedCache {
	if maxSize <= 0 {
		maxSize = DefaultBoundedCacheSize
	}
	return &BoundedCache{
		store:   make(map[string]*boundedEntry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (c *BoundedCache) Get(key string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.store[key]
	if !ok {
		c.misses++
		return nil, false
	}

	now := c.now()
	if node.entry.expired(now) {
		c.remove(node)
		c.misses++
		return nil, false
	}

	node.entry.touch(now)
	c.moveToFront(node)
	c.hits++
	return node.entry, true
}

func (c *BoundedCache) Set(key string, entry *CacheEntry, opts CacheOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry.StoredAt = now
	entry.ExpiresAt = now.Add(opts.Duration)
	entry.Options = opts

	if node, ok := c.store[key]; ok {
		node.entry = entry
		c.moveToFront(node)
		return
	}

	for len(c.store) >= c.maxSize {
		c.evictLRU()
	}

	node := &boundedEntry{key: key, entry: entry}
	c.store[key] = node
	c.pushFront(node)
}

func (c *BoundedCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.store[key]; ok {
		c.remove(node)
	}
}

func (c *BoundedCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*boundedEntry)
	c.head, c.tail = nil, nil
}

// Len returns the number of stored entries.
func (c *BoundedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// Stats returns a snapshot of the cache counters.
func (c *BoundedCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Size:      len(c.store),
		Capacity:  c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRatio = float64(c.hits) / float64(total)
	}
	return stats
}

func (c *BoundedCache) pushFront(node *boundedEntry) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

func (c *BoundedCache) unlink(node *boundedEntry) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	node.prev, node.next = nil, nil
}

func (c *BoundedCache) moveToFront(node *boundedEntry) {
	if c.head == node {
		return
	}
	c.unlink(node)
	c.pushFront(node)
}

func (c *BoundedCache) remove(node *boundedEntry) {
	c.unlink(node)
	delete(c.store, node.key)
}

func (c *BoundedCache) evictLRU() {
	if c.tail == nil {
		return
	}
	c.remove(c.tail)
	c.evictions++
}
