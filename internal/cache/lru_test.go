package cache

import (
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Get on empty cache should miss")
	}

	c.Set("a", "alpha")
	got, found := c.Get("a")
	if !found || got != "alpha" {
		t.Errorf("Get(a) = %q, %v, want alpha, true", got, found)
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	if _, found := c.Get("b"); found {
		t.Error("b should have been evicted")
	}
	if _, found := c.Get("a"); !found {
		t.Error("a should have survived eviction")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, found := c.Get("a"); found {
		t.Error("expired entry should miss")
	}
	if c.Size() != 0 {
		t.Errorf("Size() after expiry read = %d, want 0", c.Size())
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("c", 3)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestManagerSweepsRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	m := NewManager()
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)
	defer m.Stop()

	c.Set("a", 1)
	time.Sleep(30 * time.Millisecond)

	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after background sweep", c.Size())
	}
}
