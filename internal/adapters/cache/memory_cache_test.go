package cache

import (
	"context"
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/mikey/url-guard/internal/core"
	"go.uber.org/zap/zaptest"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), 0)
	defer c.Stop()
	ctx := context.Background()

	if _, err := c.Get(ctx, "a.example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty cache error = %v, want ErrNotFound", err)
	}

	score := 0.75
	entry := &core.CacheEntry{
		Host:      "a.example.com",
		Domain:    "example.com",
		Label:     core.Malicious,
		Reason:    core.ModelScore,
		Score:     &score,
		LastSeen:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := c.Set(ctx, entry); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, "a.example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Label != core.Malicious || got.Domain != "example.com" || *got.Score != 0.75 {
		t.Errorf("Get returned %+v", got)
	}

	if err := c.Delete(ctx, "a.example.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "a.example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), 0)
	defer c.Stop()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, &core.CacheEntry{Host: "old.example", ExpiresAt: now.Add(-time.Second)})
	_ = c.Set(ctx, &core.CacheEntry{Host: "fresh.example", ExpiresAt: now.Add(time.Minute)})

	if _, err := c.Get(ctx, "old.example"); !errors.Is(err, ErrExpired) {
		t.Errorf("Get expired entry error = %v, want ErrExpired", err)
	}

	if err := c.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len after Cleanup = %d, want 1", c.Len())
	}
	if _, err := c.Get(ctx, "fresh.example"); err != nil {
		t.Errorf("fresh entry lost: %v", err)
	}
}

func TestMemoryCacheStopIsIdempotent(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), time.Millisecond)
	c.Stop()
	c.Stop()
}

func TestMemoryCacheOwnsKeys(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), 0)
	defer c.Stop()
	ctx := context.Background()

	// Host aliases a reusable buffer, the way request parsers hand out strings.
	buf := []byte("alpha.example")
	host := unsafe.String(&buf[0], len(buf))
	entry := &core.CacheEntry{Host: host, Domain: host, Label: core.Malicious, ExpiresAt: time.Now().Add(time.Hour)}
	if err := c.Set(ctx, entry); err != nil {
		t.Fatalf("Set: %v", err)
	}
	copy(buf, "omega.example")

	got, err := c.Get(ctx, "alpha.example")
	if err != nil {
		t.Fatalf("Get after buffer reuse: %v", err)
	}
	if got.Host != "alpha.example" || got.Domain != "alpha.example" {
		t.Errorf("stored entry = {%q, %q}, want alpha.example", got.Host, got.Domain)
	}
	if _, err := c.Get(ctx, "omega.example"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(omega.example) error = %v, want ErrNotFound", err)
	}
}
