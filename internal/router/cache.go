// Package router owns provider selection: response caching, the local
// attempt under a timeout, quality gating, and cloud fallback, including
// mid-stream provider switching.
package router

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/halcyon-health/halcyon/internal/telemetry"
	"github.com/halcyon-health/halcyon/internal/types"
)

// CacheKey derives the cache key from the prompt text and domain.
func CacheKey(query string, domain types.Domain) string {
	h := sha256.Sum256([]byte(string(domain) + "\x00" + query))
	return hex.EncodeToString(h[:])
}

// CacheStore memoizes completion results. Implementations own expiry; a
// Get never returns a stale entry.
type CacheStore interface {
	Get(ctx context.Context, key string) (types.CompletionResult, bool)
	Put(ctx context.Context, key string, res types.CompletionResult)
}

type cacheEntry struct {
	result    types.CompletionResult
	createdAt time.Time
}

// MemoryCache is an in-memory TTL cache bounded by entry count. When full,
// the oldest insertion is evicted first. Access is encapsulated behind a
// mutex so no caller can observe a half-written entry.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	order      []string
	ttl        time.Duration
	maxEntries int
	metrics    *telemetry.Metrics
	now        func() time.Time
}

func NewMemoryCache(ttl time.Duration, maxEntries int, metrics *telemetry.Metrics) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		metrics:    metrics,
		now:        time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (types.CompletionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return types.CompletionResult{}, false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		c.remove(key)
		c.metrics.RecordCacheEvent("expired")
		return types.CompletionResult{}, false
	}
	return e.result, true
}

func (c *MemoryCache) Put(_ context.Context, key string, res types.CompletionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.remove(key)
	}
	c.entries[key] = cacheEntry{result: res, createdAt: c.now()}
	c.order = append(c.order, key)

	for c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		oldest := c.order[0]
		c.remove(oldest)
		c.metrics.RecordCacheEvent("evicted")
	}
}

// remove must be called with mu held.
func (c *MemoryCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
