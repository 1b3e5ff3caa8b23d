// Package provider implements the completion capability contract and its
// two backends: the on-device Ollama-compatible engine and the cloud
// chat-completions engine. Both safety-frame every prompt before it reaches
// the underlying model.
package provider

import (
	"context"
	"errors"

	"github.com/halcyon-health/halcyon/internal/types"
)

// Provider is the uniform completion capability. The hybrid router holds
// both backends through this interface and never through concrete types.
type Provider interface {
	Name() types.ProviderID

	// Complete runs one non-streaming inference call.
	Complete(ctx context.Context, prompt types.Prompt, opts types.CompletionOptions) (types.CompletionResult, error)

	// Stream runs a streaming inference call. The returned channel is
	// closed after a fragment with Done set (or a fragment with Err set,
	// which is always terminal).
	Stream(ctx context.Context, prompt types.Prompt, opts types.CompletionOptions) (<-chan types.StreamFragment, error)
}

// ErrUnavailable means the backend is unreachable or the requested model is
// not loaded. Providers fail fast with it instead of attempting the call.
var ErrUnavailable = errors.New("provider unavailable")

// ErrUpstream wraps a non-2xx response from a backend. The wrapped detail
// is already sanitized of credentials.
var ErrUpstream = errors.New("upstream api error")
