package search

import (
	"slices"
	"sync"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// DefaultCacheTTL is how long a ranked result stays eligible for reuse.
const DefaultCacheTTL = 300 * time.Second

type cacheEntry[V any] struct {
	payload V
	created time.Time
}

// Cache memoizes ranked results for a bounded time. Safe for concurrent use.
// A Cache belongs to exactly one index snapshot and is discarded with it.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache whose entries live for ttl as measured by now.
// A nil clock defaults to time.Now.
func NewCache[V any](ttl time.Duration, now func() time.Time) *Cache[V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the payload stored under key if it is younger than the TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.created) >= c.ttl {
		var zero V
		return zero, false
	}
	return entry.payload, true
}

// Put stores payload under key, replacing any previous entry.
// Expired entries are swept on the way.
func (c *Cache[V]) Put(key string, payload V) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, entry := range c.entries {
		if now.Sub(entry.created) >= c.ttl {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry[V]{payload: payload, created: now}
}

// Len returns the number of stored entries, live or not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// queryKey is the identity of a query for caching purposes.
type queryKey struct {
	variant     string
	tickers     []string
	limit       int
	windowHours int
	terms       []string
}

// encode renders the key in mus binary form. Tickers are sorted so that the same
// ticker set always maps to the same key; expansion terms keep their order.
func (k queryKey) encode() string {
	tickers := slices.Clone(k.tickers)
	slices.Sort(tickers)

	size := ord.String.Size(k.variant) +
		stringsSize(tickers) +
		varint.Int.Size(k.limit) +
		varint.Int.Size(k.windowHours) +
		stringsSize(k.terms)

	bs := make([]byte, size)
	n := ord.String.Marshal(k.variant, bs)
	n += marshalStrings(tickers, bs[n:])
	n += varint.Int.Marshal(k.limit, bs[n:])
	n += varint.Int.Marshal(k.windowHours, bs[n:])
	n += marshalStrings(k.terms, bs[n:])
	return string(bs[:n])
}

func stringsSize(values []string) int {
	size := varint.Int.Size(len(values))
	for _, v := range values {
		size += ord.String.Size(v)
	}
	return size
}

func marshalStrings(values []string, bs []byte) int {
	n := varint.Int.Marshal(len(values), bs)
	for _, v := range values {
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}
