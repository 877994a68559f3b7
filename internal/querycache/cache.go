package querycache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const (
	// DefaultSize is the number of entries kept when no size is configured
	DefaultSize = 100
	// DefaultTTL is how long an entry stays valid when no TTL is configured
	DefaultTTL = 5 * time.Minute
)

// Stats tracks cache performance
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
	HitRate   float64
}

func (s *Stats) updateHitRate() {
	total := s.Hits + s.Misses
	if total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
}

type lruEntry[V any] struct {
	key        string
	value      V
	expiresAt  time.Time
	prev, next *lruEntry[V]
}

// LRU is a thread-safe least-recently-used cache whose entries also expire
// after a fixed TTL
type LRU[V any] struct {
	maxSize    int
	ttl        time.Duration
	cache      map[string]*lruEntry[V]
	head, tail *lruEntry[V]
	mu         sync.Mutex
	stats      Stats
	now        func() time.Time
}

// New creates a cache holding at most maxSize entries for ttl each.
// Non-positive values fall back to DefaultSize and DefaultTTL.
func New[V any](maxSize int, ttl time.Duration) *LRU[V] {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRU[V]{
		maxSize: maxSize,
		ttl:     ttl,
		cache:   make(map[string]*lruEntry[V]),
		stats:   Stats{MaxSize: maxSize},
		now:     time.Now,
	}
}

// Key hashes the parts of a request into a fixed-length cache key
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the live value for key
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, exists := c.cache[key]
	if !exists {
		c.stats.Misses++
		c.stats.updateHitRate()
		return zero, false
	}

	if !c.now().Before(entry.expiresAt) {
		c.removeEntry(entry)
		c.stats.Misses++
		c.stats.updateHitRate()
		return zero, false
	}

	c.moveToFront(entry)
	c.stats.Hits++
	c.stats.updateHitRate()
	return entry.value, true
}

// Put stores value under key, replacing any previous value and restarting
// its TTL. The least recently used entry is evicted when the cache is full.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if entry, exists := c.cache[key]; exists {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return
	}

	entry := &lruEntry[V]{key: key, value: value, expiresAt: expiresAt}
	c.cache[key] = entry
	c.addToFront(entry)
	c.stats.Size = len(c.cache)

	for len(c.cache) > c.maxSize {
		c.evictLRU()
	}
}

// Delete removes key
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.cache[key]; exists {
		c.removeEntry(entry)
	}
}

// Len returns the number of entries, expired ones included
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Stats returns a copy of the cache statistics
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// CleanupExpired removes every expired entry and returns how many it removed
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, entry := range c.cache {
		if !now.Before(entry.expiresAt) {
			c.removeEntry(entry)
			c.stats.Evictions++
			removed++
		}
	}
	return removed
}

func (c *LRU[V]) moveToFront(entry *lruEntry[V]) {
	if entry == c.head {
		return
	}
	c.unlink(entry)
	c.addToFront(entry)
}

func (c *LRU[V]) addToFront(entry *lruEntry[V]) {
	entry.prev = nil
	entry.next = c.head
	if c.head != nil {
		c.head.prev = entry
	}
	c.head = entry
	if c.tail == nil {
		c.tail = entry
	}
}

// removeEntry drops entry from both the map and the list
func (c *LRU[V]) removeEntry(entry *lruEntry[V]) {
	delete(c.cache, entry.key)
	c.unlink(entry)
	c.stats.Size = len(c.cache)
}

func (c *LRU[V]) unlink(entry *lruEntry[V]) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
	entry.prev, entry.next = nil, nil
}

func (c *LRU[V]) evictLRU() {
	if c.tail == nil {
		return
	}
	c.removeEntry(c.tail)
	c.stats.Evictions++
}
