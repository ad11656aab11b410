package cache

import (
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache returned a hit")
	}

	c.Set("a", "Alice")
	if got, ok := c.Get("a"); !ok || got != "Alice" {
		t.Fatalf("Get(a) = %q, %v", got, ok)
	}
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	c.Set("a", "Alice")
	c.Set("b", "Bob")
	c.Get("a") // a is now most recently used
	c.Set("c", "Carla")

	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry was evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache[string](4, 10*time.Millisecond)

	c.Set("a", "Alice")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry returned a hit")
	}
}

func TestLRUCacheDelete(t *testing.T) {
	c := NewLRUCache[string](4, time.Minute)

	c.Set("a", "Alice")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted entry returned a hit")
	}
	c.Delete("missing") // no-op
}
