package router

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/halcyon-health/halcyon/internal/config"
	"github.com/halcyon-health/halcyon/internal/types"
)

// scriptedProvider implements provider.Provider with canned behavior.
type scriptedProvider struct {
	id        types.ProviderID
	result    types.CompletionResult
	err       error
	delay     time.Duration
	calls     int
	fragments []types.StreamFragment
	streamErr error
}

func (s *scriptedProvider) Name() types.ProviderID { return s.id }

func (s *scriptedProvider) Complete(ctx context.Context, _ types.Prompt, _ types.CompletionOptions) (types.CompletionResult, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return types.CompletionResult{}, ctx.Err()
		}
	}
	if s.err != nil {
		return types.CompletionResult{}, s.err
	}
	return s.result, nil
}

func (s *scriptedProvider) Stream(ctx context.Context, _ types.Prompt, _ types.CompletionOptions) (<-chan types.StreamFragment, error) {
	s.calls++
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	ch := make(chan types.StreamFragment, len(s.fragments)+1)
	go func() {
		defer close(ch)
		for _, f := range s.fragments {
			if s.delay > 0 {
				select {
				case <-time.After(s.delay):
				case <-ctx.Done():
					return
				}
			}
			select {
			case ch <- f:
			case <-ctx.Done():
				return
			}
			if f.Done {
				return
			}
		}
	}()
	return ch, nil
}

func goodResult(id types.ProviderID, text string, confidence float64) types.CompletionResult {
	return types.CompletionResult{Text: text, Provider: id, Confidence: confidence, Complete: true}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(sink{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type sink struct{}

func (sink) Write(p []byte) (int, error) { return len(p), nil }

func routingCfg(fallback bool) func() config.RoutingConfig {
	cfg := config.DefaultConfig().Routing
	cfg.FallbackEnabled = fallback
	cfg.LocalTimeout = 100 * time.Millisecond
	cfg.StreamReadTimeout = 100 * time.Millisecond
	return func() config.RoutingConfig { return cfg }
}

func newTestHybrid(local, cloud *scriptedProvider, fallback bool) (*Hybrid, *MemoryCache) {
	cache := NewMemoryCache(time.Hour, 100, nil)
	h := NewHybrid(local, cloud, cache, routingCfg(fallback), quietLogger(), nil)
	return h, cache
}

func TestCompleteLocalSuccess(t *testing.T) {
	local := &scriptedProvider{id: types.ProviderLocal, result: goodResult(types.ProviderLocal, "answer", 0.75)}
	cloud := &scriptedProvider{id: types.ProviderCloud}
	h, _ := newTestHybrid(local, cloud, true)

	res, err := h.Complete(context.Background(), types.Prompt{Query: "q"}, types.CompletionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Provider != types.ProviderLocal {
		t.Errorf("expected local result, got %s", res.Provider)
	}
	if cloud.calls != 0 {
		t.Error("cloud should not be called on local success")
	}
}

func TestCompleteLowConfidenceFallsBack(t *testing.T) {
	local := &scriptedProvider{id: types.ProviderLocal, result: goodResult(types.ProviderLocal, "meh", 0.4)}
	cloud := &scriptedProvider{id: types.ProviderCloud, result: goodResult(types.ProviderCloud, "better", 0.92)}
	h, cache := newTestHybrid(local, cloud, true)

	res, err := h.Complete(context.Background(), types.Prompt{Query: "q"}, types.CompletionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Provider != types.ProviderCloud {
		t.Errorf("expected cloud result, got %s", res.Provider)
	}
	// The cloud result must have been cached.
	cached, ok := cache.Get(context.Background(), CacheKey("q", ""))
	if !ok || cached.Provider != types.ProviderCloud {
		t.Errorf("cloud result should be cached, got %+v ok=%v", cached, ok)
	}
}

func TestCompleteLowQualityPhraseFallsBack(t *testing.T) {
	local := &scriptedProvider{id: types.ProviderLocal, result: goodResult(types.ProviderLocal, "I'm not sure about that.", 0.75)}
	cloud := &scriptedProvider{id: types.ProviderCloud, result: goodResult(types.ProviderCloud, "clear answer", 0.92)}
	h, _ := newTestHybrid(local, cloud, true)

	res, err := h.Complete(context.Background(), types.Prompt{Query: "q"}, types.CompletionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Provider != types.ProviderCloud {
		t.Errorf("expected fallback on hedge phrase, got %s", res.Provider)
	}
}

func TestCompleteIncompleteResultFallsBack(t *testing.T) {
	local := &scriptedProvider{id: types.ProviderLocal, result: types.CompletionResult{Text: "cut off", Provider: types.ProviderLocal, Confidence: 0.75, Complete: false}}
	cloud := &scriptedProvider{id: types.ProviderCloud, result: goodResult(types.ProviderCloud, "full", 0.92)}
	h, _ := newTestHybrid(local, cloud, true)

	res, _ := h.Complete(context.Background(), types.Prompt{Query: "q"}, types.CompletionOptions{})
	if res.Provider != types.ProviderCloud {
		t.Errorf("incomplete local result should fall back, got %s", res.Provider)
	}
}

func TestCompleteTimeoutFallsBack(t *testing.T) {
	local := &scriptedProvider{id: types.ProviderLocal, delay: time.Second, result: goodResult(types.ProviderLocal, "late", 0.75)}
	cloud := &scriptedProvider{id: types.ProviderCloud, result: goodResult(types.ProviderCloud, "fast", 0.92)}
	h, _ := newTestHybrid(local, cloud, true)

	res, err := h.Complete(context.Background(), types.Prompt{Query: "q"}, types.CompletionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Provider != types.ProviderCloud {
		t.Errorf("timeout should trigger fallback, got %s", res.Provider)
	}
}

func TestCompleteFallbackDisabledPropagatesFailure(t *testing.T) {
	local := &scriptedProvider{id: types.ProviderLocal, err: errors.New("backend down")}
	cloud := &scriptedProvider{id: types.ProviderCloud, result: goodResult(types.ProviderCloud, "x", 0.92)}
	h, _ := newTestHybrid(local, cloud, false)

	_, err := h.Complete(context.Background(), types.Prompt{Query: "q"}, types.CompletionOptions{})
	if err == nil {
		t.Fatal("expected error with fallback disabled")
	}
	if cloud.calls != 0 {
		t.Error("cloud must not be called with fallback disabled")
	}
}

func TestCompleteFallbackDisabledReturnsWeakResult(t *testing.T) {
	local := &scriptedProvider{id: types.ProviderLocal, result: goodResult(types.ProviderLocal, "weak", 0.2)}
	cloud := &scriptedProvider{id: types.ProviderCloud}
	h, _ := newTestHybrid(local, cloud, false)

	res, err := h.Complete(context.Background(), types.Prompt{Query: "q"}, types.CompletionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "weak" || cloud.calls != 0 {
		t.Errorf("weak local answer should be returned as-is, got %+v (cloud calls %d)", res, cloud.calls)
	}
}

func TestCompleteCacheHitSkipsProviders(t *testing.T) {
	local := &scriptedProvider{id: types.ProviderLocal, result: goodResult(types.ProviderLocal, "answer", 0.75)}
	cloud := &scriptedProvider{id: types.ProviderCloud}
	h, _ := newTestHybrid(local, cloud, true)

	prompt := types.Prompt{Query: "same question", Domain: types.DomainNutrition}
	if _, err := h.Complete(context.Background(), prompt, types.CompletionOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Complete(context.Background(), prompt, types.CompletionOptions{}); err != nil {
		t.Fatal(err)
	}
	if local.calls != 1 {
		t.Errorf("second call should hit the cache, local called %d times", local.calls)
	}
}

func TestCompleteExpiredEntryTriggersFreshCall(t *testing.T) {
	local := &scriptedProvider{id: types.ProviderLocal, result: goodResult(types.ProviderLocal, "answer", 0.75)}
	cloud := &scriptedProvider{id: types.ProviderCloud}
	cache := NewMemoryCache(time.Minute, 100, nil)
	now := time.Now()
	cache.now = func() time.Time { return now }
	h := NewHybrid(local, cloud, cache, routingCfg(true), quietLogger(), nil)

	prompt := types.Prompt{Query: "q"}
	h.Complete(context.Background(), prompt, types.CompletionOptions{})

	now = now.Add(2 * time.Minute)
	h.Complete(context.Background(), prompt, types.CompletionOptions{})

	if local.calls != 2 {
		t.Errorf("expired entry should force a fresh call, local called %d times", local.calls)
	}
}

func TestCompleteErrorResultNeverCached(t *testing.T) {
	local := &scriptedProvider{id: types.ProviderLocal, err: errors.New("boom")}
	cloud := &scriptedProvider{id: types.ProviderCloud, result: types.CompletionResult{Text: "partial", Provider: types.ProviderCloud, Confidence: 0.92, Complete: false}}
	h, cache := newTestHybrid(local, cloud, true)

	h.Complete(context.Background(), types.Prompt{Query: "q"}, types.CompletionOptions{})
	if cache.Len() != 0 {
		t.Error("incomplete cloud result must not be cached")
	}
}
