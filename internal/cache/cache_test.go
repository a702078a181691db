package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/AltairaLabs/mermaider-mcp/internal/types"
)

// fakeClock lets tests move time forward
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
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T, ttl time.Duration) (*RenderCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewRenderCache(ttl)
	c.now = clock.Now
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func entries(c *RenderCache) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.outcomes)
}

func TestNewRenderCache(t *testing.T) {
	c, _ := newTestCache(t, 5*time.Minute)
	if c.outcomes == nil {
		t.Error("Expected outcomes map to be initialized")
	}
	if c.ttl != 5*time.Minute {
		t.Errorf("Expected TTL of 5 minutes, got %v", c.ttl)
	}
}

func TestRenderCacheStoreAndGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	key := Key("svg", "graph TD; A-->B;")

	c.Store(key, &types.Outcome{Valid: true, SVG: "<svg/>"})

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected cached outcome")
	}
	if got.SVG != "<svg/>" {
		t.Errorf("Expected cached SVG, got %s", got.SVG)
	}
	if entries(c) != 1 {
		t.Errorf("Expected size 1, got %d", entries(c))
	}
}

func TestRenderCacheSkipsInvalidOutcomes(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	c.Store("k", types.Invalid("Parse error"))
	c.Store("nil", nil)
	c.Store("", &types.Outcome{Valid: true})

	if entries(c) != 0 {
		t.Errorf("Expected nothing cached, got %d entries", entries(c))
	}
}

func TestRenderCacheExpiration(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)
	c.Store("k", &types.Outcome{Valid: true, SVG: "<svg/>"})

	clock.Advance(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Error("Expected expired outcome to be missed")
	}

	c.cleanup()
	if entries(c) != 0 {
		t.Errorf("Expected cleanup to evict expired entry, got %d", entries(c))
	}
}

func TestKeyDependsOnFormatAndSource(t *testing.T) {
	if Key("svg", "a") == Key("png", "a") {
		t.Error("Expected format to be part of the key")
	}
	if Key("svg", "a") == Key("svg", "b") {
		t.Error("Expected source to be part of the key")
	}
	if Key("svg", "a") != Key("svg", "a") {
		t.Error("Expected key to be deterministic")
	}
}

func TestRenderCacheCloseTwice(t *testing.T) {
	c := NewRenderCache(time.Minute)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
