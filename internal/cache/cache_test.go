package cache

import (
	"fmt"
	"sync"
	"testing"
)

// TestGetPut tests basic storage and retrieval.
func TestGetPut(t *testing.T) {
	c := NewSharded[string, int](8, StringHasher)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache reported a hit")
	}

	c.Put("alpha", 1)
	c.Put("beta", 2)

	if v, ok := c.Get("alpha"); !ok || v != 1 {
		t.Errorf("Get(alpha) = (%d, %v), want (1, true)", v, ok)
	}
	if v, ok := c.Get("beta"); !ok || v != 2 {
		t.Errorf("Get(beta) = (%d, %v), want (2, true)", v, ok)
	}

	c.Put("alpha", 10)
	if v, _ := c.Get("alpha"); v != 10 {
		t.Errorf("Get(alpha) after update = %d, want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

// TestEviction tests LRU order within one shard.
func TestEviction(t *testing.T) {
	// Identity hash sends all keys to shard 0, capacity 2.
	c := NewSharded[uint64, string](2, Uint64Hasher)
	c.Put(16, "a")
	c.Put(32, "b")
	c.Get(16) // now 32 is the oldest
	c.Put(48, "c")

	if _, ok := c.Get(32); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get(16); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get(48); !ok {
		t.Error("new entry missing after eviction")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

// TestGetOrCreate tests the single-computation fill path.
func TestGetOrCreate(t *testing.T) {
	c := NewSharded[string, int](8, StringHasher)

	calls := 0
	create := func() int { calls++; return 42 }

	if v := c.GetOrCreate("key", create); v != 42 {
		t.Errorf("GetOrCreate = %d, want 42", v)
	}
	if v := c.GetOrCreate("key", create); v != 42 {
		t.Errorf("GetOrCreate on hit = %d, want 42", v)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats = %+v, want 1 hit, 1 miss", stats)
	}
}

// TestClear tests that Clear empties every shard.
func TestClear(t *testing.T) {
	c := NewSharded[string, int](8, StringHasher)
	for i := 0; i < 50; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("k0"); ok {
		t.Error("entry survived Clear")
	}
}

// TestConcurrent tests parallel readers and writers.
func TestConcurrent(t *testing.T) {
	c := NewSharded[string, int](64, StringHasher)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%32)
				c.Put(key, g)
				if v, ok := c.Get(key); ok && v < 0 {
					t.Errorf("Get(%s) = %d, want non-negative", key, v)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() != 32 {
		t.Errorf("Len() = %d, want 32", c.Len())
	}
}

func BenchmarkGetHit(b *testing.B) {
	c := NewSharded[string, int](256, StringHasher)
	c.Put("hot", 1)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("hot")
	}
}
