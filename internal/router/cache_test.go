package router

import (
	"context"
	"testing"
	"time"

	"github.com/halcyon-health/halcyon/internal/types"
)

func TestCacheKeyDependsOnQueryAndDomain(t *testing.T) {
	a := CacheKey("what is LDL", types.DomainLabInterpretation)
	b := CacheKey("what is LDL", types.DomainGeneral)
	c := CacheKey("what is HDL", types.DomainLabInterpretation)
	if a == b || a == c {
		t.Error("keys should differ by domain and by query")
	}
	if a != CacheKey("what is LDL", types.DomainLabInterpretation) {
		t.Error("key not deterministic")
	}
}

func TestMemoryCachePutGet(t *testing.T) {
	c := NewMemoryCache(time.Hour, 10, nil)
	res := types.CompletionResult{Text: "hello", Provider: types.ProviderLocal, Complete: true}

	c.Put(context.Background(), "k", res)
	got, ok := c.Get(context.Background(), "k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Text != "hello" {
		t.Errorf("unexpected cached text %q", got.Text)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10, nil)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put(context.Background(), "k", types.CompletionResult{Text: "x", Complete: true})

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Error("expected miss after TTL")
	}
	if c.Len() != 0 {
		t.Error("expired entry should be evicted on read")
	}
}

func TestMemoryCacheEvictsOldestFirst(t *testing.T) {
	c := NewMemoryCache(time.Hour, 2, nil)
	ctx := context.Background()

	c.Put(ctx, "first", types.CompletionResult{Text: "1"})
	c.Put(ctx, "second", types.CompletionResult{Text: "2"})
	c.Put(ctx, "third", types.CompletionResult{Text: "3"})

	if _, ok := c.Get(ctx, "first"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get(ctx, "second"); !ok {
		t.Error("second entry should survive")
	}
	if _, ok := c.Get(ctx, "third"); !ok {
		t.Error("third entry should survive")
	}
}

func TestMemoryCacheOverwriteRefreshesOrder(t *testing.T) {
	c := NewMemoryCache(time.Hour, 2, nil)
	ctx := context.Background()

	c.Put(ctx, "a", types.CompletionResult{Text: "1"})
	c.Put(ctx, "b", types.CompletionResult{Text: "2"})
	c.Put(ctx, "a", types.CompletionResult{Text: "1b"}) // refresh a
	c.Put(ctx, "c", types.CompletionResult{Text: "3"})  // evicts b, not a

	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("b should have been evicted as oldest")
	}
	got, ok := c.Get(ctx, "a")
	if !ok || got.Text != "1b" {
		t.Errorf("a should survive with refreshed value, got %+v ok=%v", got, ok)
	}
}

func TestRedisCacheNilClientFailsOpen(t *testing.T) {
	c := NewRedisCache(nil, time.Hour)
	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Error("nil client should always miss")
	}
	// Put must not panic.
	c.Put(context.Background(), "k", types.CompletionResult{Text: "x"})
}
