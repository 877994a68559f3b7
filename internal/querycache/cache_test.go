package querycache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(size int, ttl time.Duration) (*LRU[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	c := New[string](size, ttl)
	c.now = clock.Now
	return c, clock
}

// TestLRU_BasicOperations tests Get/Put/Delete
func TestLRU_BasicOperations(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	t.Run("Put and Get", func(t *testing.T) {
		c.Put("cs.AI", "three papers")
		got, found := c.Get("cs.AI")
		if !found {
			t.Fatal("Expected to find value in cache")
		}
		if got != "three papers" {
			t.Errorf("Expected 'three papers', got '%s'", got)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		if _, found := c.Get("missing"); found {
			t.Error("Expected not to find non-existent key")
		}
	})

	t.Run("Put replaces value", func(t *testing.T) {
		c.Put("cs.AI", "four papers")
		got, _ := c.Get("cs.AI")
		if got != "four papers" {
			t.Errorf("Expected replaced value, got '%s'", got)
		}
		if c.Len() != 1 {
			t.Errorf("Expected 1 entry, got %d", c.Len())
		}
	})

	t.Run("Delete key", func(t *testing.T) {
		c.Delete("cs.AI")
		if _, found := c.Get("cs.AI"); found {
			t.Error("Expected deleted key to not be found")
		}
		c.Delete("cs.AI")
	})
}

// TestLRU_Eviction tests that the least recently used entry goes first
func TestLRU_Eviction(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Put("a", "1")
	c.Put("b", "2")
	c.Get("a") // a is now most recently used
	c.Put("c", "3")

	if _, found := c.Get("b"); found {
		t.Error("Expected b to be evicted")
	}
	for _, key := range []string{"a", "c"} {
		if _, found := c.Get(key); !found {
			t.Errorf("Expected %s to survive", key)
		}
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Expected 1 eviction, got %d", got)
	}
}

// TestLRU_Expiry tests TTL handling
func TestLRU_Expiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Put("old", "x")
	clock.Advance(30 * time.Second)
	c.Put("new", "y")

	if _, found := c.Get("old"); !found {
		t.Fatal("Expected entry to be live before its TTL")
	}

	clock.Advance(30 * time.Second)
	if _, found := c.Get("old"); found {
		t.Error("Expected entry to expire exactly at its TTL")
	}
	if c.Len() != 1 {
		t.Errorf("Expected expired entry to be removed on Get, %d left", c.Len())
	}

	clock.Advance(time.Minute)
	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("Expected CleanupExpired to remove 1 entry, removed %d", removed)
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", c.Len())
	}
}

// TestLRU_PutRestartsTTL tests that replacing a value renews it
func TestLRU_PutRestartsTTL(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Put("k", "v1")
	clock.Advance(50 * time.Second)
	c.Put("k", "v2")
	clock.Advance(50 * time.Second)

	if got, found := c.Get("k"); !found || got != "v2" {
		t.Errorf("Expected renewed entry v2, got %q (found=%v)", got, found)
	}
}

func TestLRU_Stats(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Put("k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Expected 2 hits and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
	if stats.HitRate < 0.66 || stats.HitRate > 0.67 {
		t.Errorf("Expected hit rate 2/3, got %f", stats.HitRate)
	}
	if stats.Size != 1 || stats.MaxSize != 10 {
		t.Errorf("Expected size 1 of 10, got %d of %d", stats.Size, stats.MaxSize)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New[int](0, 0)
	if c.maxSize != DefaultSize || c.ttl != DefaultTTL {
		t.Errorf("Expected defaults, got size %d ttl %s", c.maxSize, c.ttl)
	}
}

func TestKey(t *testing.T) {
	if Key("a", "bc") == Key("ab", "c") {
		t.Error("Expected part boundaries to change the key")
	}
	if Key("q", "5") != Key("q", "5") {
		t.Error("Expected equal parts to give equal keys")
	}
	if len(Key("x")) != 64 {
		t.Errorf("Expected a hex sha256, got %q", Key("x"))
	}
}

// TestLRU_Concurrent exercises the cache from many goroutines
func TestLRU_Concurrent(t *testing.T) {
	c := New[int](50, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*31+i)%80)
				c.Put(key, i)
				c.Get(key)
				if i%17 == 0 {
					c.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Expected at most 50 entries, got %d", c.Len())
	}
}
