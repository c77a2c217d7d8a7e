package hammock

import (
	"bytes"
	"hash/fnv"
	"net/http"
	"sync"
	"time"
)

// CacheMode selects how an entry's lifetime is measured.
type CacheMode int

const (
	// AbsoluteExpiration expires an entry Duration after it was stored.
	AbsoluteExpiration CacheMode = iota
	// SlidingExpiration expires an entry Duration after it was last read.
	SlidingExpiration
)

func (m CacheMode) String() string {
	if m == SlidingExpiration {
		return "sliding"
	}
	return "absolute"
}

// CacheOptions is the expiration policy applied when storing a response.
type CacheOptions struct {
	Duration time.Duration
	Mode     CacheMode
}

// CacheEntry is a stored response.
type CacheEntry struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
	ExpiresAt  time.Time
	Options    CacheOptions
}

// expired reports whether the entry is no longer servable at now.
func (e *CacheEntry) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// touch extends a sliding entry's lifetime from now.
func (e *CacheEntry) touch(now time.Time) {
	if e.Options.Mode == SlidingExpiration {
		e.ExpiresAt = now.Add(e.Options.Duration)
	}
}

//go:generate mockgen -destination=internal/mocks/cache.go -package=mocks github.com/codeinpeace/hammock Cache

// Cache stores responses by key. The client never evicts; implementations
// own expiry and eviction.
type Cache interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, entry *CacheEntry, opts CacheOptions)
	Delete(key string)
	Clear()
}

// CacheKeyFunc produces the lookup key for a request.
type CacheKeyFunc func() string

// CacheCondition decides whether a request takes part in caching.
type CacheCondition func(req *Request) bool

// InMemoryCache is an unbounded, sharded, process-local cache. It is safe for
// concurrent use and can be shared by several clients.
type InMemoryCache struct {
	shards    []*cacheShard
	numShards int
	now       func() time.Time
}

type cacheShard struct {
	mu    sync.Mutex
	store map[string]*CacheEntry
}

// NewInMemoryCache creates an empty InMemoryCache.
func NewInMemoryCache() *InMemoryCache {
	numShards := 16
	shards := make([]*cacheShard, numShards)
	for i := range shards {
		shards[i] = &cacheShard{
			store: make(map[string]*CacheEntry),
		}
	}
	return &InMemoryCache{
		shards:    shards,
		numShards: numShards,
		now:       time.Now,
	}
}

func (c *InMemoryCache) getShard(key string) *cacheShard {
	hash := fnv.New32a()
	hash.Write([]byte(key))
	return c.shards[hash.Sum32()%uint32(c.numShards)]
}

// Get returns a live entry. Expired entries are removed; sliding entries
// have their lifetime extended.
func (c *InMemoryCache) Get(key string) (*CacheEntry, bool) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, exists := shard.store[key]
	if !exists {
		return nil, false
	}

	now := c.now()
	if entry.expired(now) {
		delete(shard.store, key)
		return nil, false
	}
	entry.touch(now)

	return entry, true
}

// Set stores entry, stamping StoredAt, ExpiresAt and Options.
func (c *InMemoryCache) Set(key string, entry *CacheEntry, opts CacheOptions) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	now := c.now()
	entry.StoredAt = now
	entry.ExpiresAt = now.Add(opts.Duration)
	entry.Options = opts
	shard.store[key] = entry
}

func (c *InMemoryCache) Delete(key string) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.store, key)
}

func (c *InMemoryCache) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.store = make(map[string]*CacheEntry)
		shard.mu.Unlock()
	}
}

// Len returns the number of stored entries, expired ones included until
// they are next read.
func (c *InMemoryCache) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		total += len(shard.store)
		shard.mu.Unlock()
	}
	return total
}

// sizer is implemented by caches that can report their entry count.
type sizer interface {
	Len() int
}

func cacheEntryFromResponse(resp *Response) *CacheEntry {
	return &CacheEntry{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       bytes.Clone(resp.Content),
	}
}
