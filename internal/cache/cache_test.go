package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestKey_StableAndDistinct(t *testing.T) {
	a := Key("https://api.example.com/posts?page=1")
	b := Key("https://api.example.com/posts?page=1")
	c := Key("https://api.example.com/posts?page=2")

	if a != b {
		t.Error("Expected identical URLs to derive identical keys")
	}
	if a == c {
		t.Error("Expected distinct URLs to derive distinct keys")
	}
	if len(a) == 0 || a[:12] != "hindsite:v1:" {
		t.Errorf("Expected versioned key prefix, got %q", a)
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("value"), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, found := c.Get("k")
	if !found || !bytes.Equal(got, []byte("value")) {
		t.Errorf("Expected cached value, got %q found=%v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Expected value gone after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected value expired")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set(Key("url-1"), []byte("body"), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, found := c.Get(Key("url-1"))
	if !found || !bytes.Equal(got, []byte("body")) {
		t.Errorf("Expected cached value, got %q found=%v", got, found)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("body"), time.Millisecond); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected value expired")
	}
}

func TestDiskCache_MissingEntry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if _, found := c.Get("absent"); found {
		t.Error("Expected miss for absent key")
	}
}

func TestLayeredCache_DiskHitPromoted(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	if err := c.Set("k", []byte("body"), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// A fresh layered cache over the same directory simulates a restart: the
	// memory tier is cold, the disk tier still holds the entry.
	restarted := NewLayeredCache(time.Minute, dir, time.Minute)
	got, found := restarted.Get("k")
	if !found || !bytes.Equal(got, []byte("body")) {
		t.Fatalf("Expected disk hit after restart, got %q found=%v", got, found)
	}

	// The hit must now also live in memory.
	mem := restarted.memory
	if _, found := mem.Get("k"); !found {
		t.Error("Expected disk hit promoted to memory")
	}
}

func TestLayeredCache_Clear(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("body"), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Expected cache empty after clear")
	}
}
