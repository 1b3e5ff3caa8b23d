package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/halcyon-health/halcyon/internal/config"
	"github.com/halcyon-health/halcyon/internal/provider"
	"github.com/halcyon-health/halcyon/internal/telemetry"
	"github.com/halcyon-health/halcyon/internal/types"
)

// Hybrid routes each call to the local or cloud provider. It satisfies
// provider.Provider itself, so callers that accept a provider can be handed
// the whole routing pipeline.
type Hybrid struct {
	local   provider.Provider
	cloud   provider.Provider
	cache   CacheStore
	cfg     func() config.RoutingConfig
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

func NewHybrid(local, cloud provider.Provider, cache CacheStore, cfg func() config.RoutingConfig, logger *slog.Logger, metrics *telemetry.Metrics) *Hybrid {
	return &Hybrid{
		local:   local,
		cloud:   cloud,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

func (h *Hybrid) Name() types.ProviderID { return types.ProviderHybrid }

// fallbackReason classifies why the local result was rejected.
func fallbackReason(res types.CompletionResult, err error, threshold float64) (string, bool) {
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		return "timeout", true
	case err != nil:
		return "error", true
	case !res.Complete:
		return "incomplete", true
	case res.Confidence < threshold:
		return "low_confidence", true
	case isLowQuality(res.Text):
		return "low_quality", true
	default:
		return "", false
	}
}

// Complete tries the cache, then the local provider under a timeout, then
// the cloud provider when the local result is missing, broken, or not good
// enough. Only complete, error-free results are cached.
func (h *Hybrid) Complete(ctx context.Context, prompt types.Prompt, opts types.CompletionOptions) (types.CompletionResult, error) {
	cfg := h.cfg()
	key := CacheKey(prompt.Query, prompt.Domain)

	if res, ok := h.cache.Get(ctx, key); ok {
		h.metrics.RecordCacheEvent("hit")
		return res, nil
	}
	h.metrics.RecordCacheEvent("miss")

	localCtx, cancel := context.WithTimeout(ctx, cfg.LocalTimeout)
	res, err := h.local.Complete(localCtx, prompt, opts)
	cancel()

	reason, fall := fallbackReason(res, err, cfg.ConfidenceThreshold)
	if !fall {
		h.metrics.RecordProviderCall(string(types.ProviderLocal), "ok", float64(res.Latency.Milliseconds()), res.TokensUsed)
		h.store(ctx, key, res)
		return res, nil
	}

	h.metrics.RecordProviderCall(string(types.ProviderLocal), reason, 0, 0)

	if !cfg.FallbackEnabled {
		if err != nil {
			return types.CompletionResult{}, fmt.Errorf("local provider: %w", err)
		}
		// A weak but valid local answer is still an answer when
		// escalation is off.
		return res, nil
	}

	h.metrics.RecordFallback(reason)
	h.logger.Info("falling back to cloud provider", "reason", reason)

	cloudRes, cloudErr := h.cloud.Complete(ctx, prompt, opts)
	if cloudErr != nil {
		h.metrics.RecordProviderCall(string(types.ProviderCloud), "error", 0, 0)
		return types.CompletionResult{}, fmt.Errorf("cloud provider: %w", cloudErr)
	}

	h.metrics.RecordProviderCall(string(types.ProviderCloud), "ok", float64(cloudRes.Latency.Milliseconds()), cloudRes.TokensUsed)
	h.store(ctx, key, cloudRes)
	return cloudRes, nil
}

func (h *Hybrid) store(ctx context.Context, key string, res types.CompletionResult) {
	if !res.Cacheable() {
		return
	}
	h.cache.Put(ctx, key, res)
	h.metrics.RecordCacheEvent("store")
}
