package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowWithinBurst(t *testing.T) {
	l := NewLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("https://api.example.com/posts") {
			t.Errorf("Expected request %d within burst to be allowed", i)
		}
	}
	if l.Allow("https://api.example.com/posts") {
		t.Error("Expected request beyond burst to be denied")
	}
}

func TestLimiter_PerHostBuckets(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("https://api.example.com/posts") {
		t.Error("Expected first host's request allowed")
	}
	if l.Allow("https://api.example.com/other") {
		t.Error("Expected same host's second request denied")
	}
	if !l.Allow("https://pages.example.net/p1") {
		t.Error("Expected a different host to have its own bucket")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := NewLimiter(0.001, 1)

	// Drain the single token.
	if err := l.Wait(context.Background(), "https://api.example.com/a"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://api.example.com/b"); err == nil {
		t.Error("Expected context deadline to abort the wait")
	}
}

func TestLimiter_ZeroBurstDefaults(t *testing.T) {
	l := NewLimiter(10, 0)

	if !l.Allow("https://api.example.com/posts") {
		t.Error("Expected default burst to allow an initial request")
	}
}

func TestLimiter_InvalidURL(t *testing.T) {
	l := NewLimiter(1, 1)

	if l.Allow("://bad url") {
		t.Error("Expected invalid URL to be denied")
	}
}
