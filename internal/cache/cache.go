// Package cache keeps render outcomes for a limited time so repeated
// requests for the same diagram skip the engine.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/AltairaLabs/mermaider-mcp/internal/types"
)

// cleanupInterval is how often expired outcomes are evicted
const cleanupInterval = 1 * time.Minute

// RenderCache caches render outcomes with TTL-based expiration
type RenderCache struct {
	outcomes map[string]*cachedOutcome
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type cachedOutcome struct {
	outcome   *types.Outcome
	expiresAt time.Time
}

// Key derives the cache key of a diagram source rendered in format
func Key(format, source string) string {
	sum := sha256.Sum256([]byte(source))
	return format + ":" + hex.EncodeToString(sum[:])
}

// NewRenderCache creates a new render cache with the given TTL.
// Starts a background cleanup goroutine that removes expired outcomes.
func NewRenderCache(ttl time.Duration) *RenderCache {
	c := &RenderCache{
		outcomes: make(map[string]*cachedOutcome),
		ttl:      ttl,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

// Store caches a valid outcome. Invalid outcomes are not cached so a
// transient engine failure is retried on the next call.
func (c *RenderCache) Store(key string, outcome *types.Outcome) {
	if key == "" || outcome == nil || !outcome.Valid {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcomes[key] = &cachedOutcome{
		outcome:   outcome,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Get returns the cached outcome for key if present and not expired
func (c *RenderCache) Get(key string) (*types.Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, exists := c.outcomes[key]
	if !exists || c.now().After(cached.expiresAt) {
		return nil, false
	}
	return cached.outcome, true
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *RenderCache) Close() error {
	c.stopOnce.Do(func() { close(c.done) })
	return nil
}

// cleanupLoop periodically removes expired outcomes
func (c *RenderCache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

// cleanup removes expired outcomes
func (c *RenderCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, cached := range c.outcomes {
		if now.After(cached.expiresAt) {
			delete(c.outcomes, key)
		}
	}
}
