package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/halcyon-health/halcyon/internal/types"
)

const switchNotice = "\n[switching to a more capable model...]\n"

// errLocalStream marks a local stream that ended without a done marker.
var errLocalStream = errors.New("local stream ended unexpectedly")

// Stream produces one logical stream of fragments. It may start on the
// local provider and switch to the cloud mid-stream; once switched, no
// further local fragments are forwarded. The synthetic switch notice is
// marked with Notice so callers can exclude it from reassembly.
func (h *Hybrid) Stream(ctx context.Context, prompt types.Prompt, opts types.CompletionOptions) (<-chan types.StreamFragment, error) {
	out := make(chan types.StreamFragment, 16)

	go func() {
		defer close(out)
		cfg := h.cfg()

		if cfg.FallbackEnabled && assessComplexity(prompt) {
			h.metrics.RecordFallback("pre_assessment")
			h.logger.Info("pre-assessment routed stream to cloud")
			h.streamCloud(ctx, out, prompt, opts)
			return
		}

		localCtx, cancelLocal := context.WithCancel(ctx)
		defer cancelLocal()

		local, err := h.local.Stream(localCtx, prompt, opts)
		if err != nil {
			h.metrics.RecordProviderCall(string(types.ProviderLocal), "error", 0, 0)
			if !cfg.FallbackEnabled {
				out <- types.StreamFragment{Done: true, Err: err, Provider: types.ProviderLocal}
				return
			}
			h.metrics.RecordFallback("error")
			out <- types.StreamFragment{Text: switchNotice, Notice: true, Provider: types.ProviderCloud}
			h.streamCloud(ctx, out, prompt, opts)
			return
		}

		var partial strings.Builder
		timeout := cfg.StreamReadTimeout
		if timeout <= 0 {
			timeout = cfg.LocalTimeout
		}
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		for {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(timeout)

			select {
			case <-ctx.Done():
				out <- types.StreamFragment{Done: true, Err: ctx.Err(), Provider: types.ProviderLocal}
				return

			case <-timer.C:
				h.switchOrFail(ctx, out, prompt, opts, partial.String(), "timeout", context.DeadlineExceeded, cfg.FallbackEnabled)
				cancelLocal()
				go drain(local)
				return

			case f, ok := <-local:
				if !ok {
					// Stream closed without a done marker.
					h.switchOrFail(ctx, out, prompt, opts, partial.String(), "error", errLocalStream, cfg.FallbackEnabled)
					return
				}
				if f.Err != nil {
					h.switchOrFail(ctx, out, prompt, opts, partial.String(), "error", f.Err, cfg.FallbackEnabled)
					cancelLocal()
					go drain(local)
					return
				}

				partial.WriteString(f.Text)

				// Inspect the accumulated text: hedge phrases can span
				// fragment boundaries. With fallback off a weak local
				// stream is still the answer, as in the non-streaming path.
				if cfg.FallbackEnabled && isLowQuality(partial.String()) {
					h.metrics.RecordFallback("low_quality")
					h.logger.Info("low-quality signal mid-stream, switching providers")
					cancelLocal()
					go drain(local)

					out <- types.StreamFragment{Text: switchNotice, Notice: true, Provider: types.ProviderCloud}
					h.streamCloud(ctx, out, withPriorOutput(prompt, partial.String()), opts)
					return
				}

				out <- f
				if f.Done {
					h.metrics.RecordProviderCall(string(types.ProviderLocal), "ok", 0, types.EstimateTokens(partial.String()))
					return
				}
			}
		}
	}()

	return out, nil
}

// switchOrFail handles a dead local stream: continue transparently on the
// cloud when fallback is enabled, otherwise yield one terminal error
// fragment.
func (h *Hybrid) switchOrFail(ctx context.Context, out chan<- types.StreamFragment, prompt types.Prompt, opts types.CompletionOptions, partial, reason string, cause error, fallback bool) {
	h.metrics.RecordProviderCall(string(types.ProviderLocal), reason, 0, 0)
	if !fallback {
		out <- types.StreamFragment{Done: true, Err: cause, Provider: types.ProviderLocal}
		return
	}
	h.metrics.RecordFallback(reason)
	out <- types.StreamFragment{Text: switchNotice, Notice: true, Provider: types.ProviderCloud}
	h.streamCloud(ctx, out, withPriorOutput(prompt, partial), opts)
}

// withPriorOutput folds the abandoned local output into the prompt context
// so the cloud model continues rather than starting over.
func withPriorOutput(prompt types.Prompt, partial string) types.Prompt {
	if strings.TrimSpace(partial) == "" {
		return prompt
	}
	prior := "Partial draft of the answer so far (continue and improve it):\n" + partial
	if prompt.Context != "" {
		prompt.Context = prompt.Context + "\n\n" + prior
	} else {
		prompt.Context = prior
	}
	return prompt
}

func (h *Hybrid) streamCloud(ctx context.Context, out chan<- types.StreamFragment, prompt types.Prompt, opts types.CompletionOptions) {
	stream, err := h.cloud.Stream(ctx, prompt, opts)
	if err != nil {
		h.metrics.RecordProviderCall(string(types.ProviderCloud), "error", 0, 0)
		out <- types.StreamFragment{Done: true, Err: err, Provider: types.ProviderCloud}
		return
	}

	var total int
	for f := range stream {
		total += types.EstimateTokens(f.Text)
		out <- f
		if f.Done {
			break
		}
	}
	h.metrics.RecordProviderCall(string(types.ProviderCloud), "ok", 0, total)
}

// drain discards the rest of an abandoned stream so its producer goroutine
// can exit.
func drain(ch <-chan types.StreamFragment) {
	for range ch {
	}
}
