package types

import "time"

// CompletionResult is the outcome of a single non-streaming inference call.
type CompletionResult struct {
	Text       string        `json:"text"`
	Provider   ProviderID    `json:"provider"`
	TokensUsed int           `json:"tokens_used"`
	Latency    time.Duration `json:"latency_ns"`

	// Confidence is a 0-1 heuristic trust score. Providers assign fixed
	// values; it is not derived from the model.
	Confidence float64 `json:"confidence"`

	// Complete is false when generation was cut off before a natural stop.
	Complete bool `json:"complete"`

	// Error carries a sanitized failure description for results that were
	// produced despite a problem. Results with a non-empty Error are never
	// cached.
	Error string `json:"error,omitempty"`
}

// Cacheable reports whether this result may be memoized.
func (r CompletionResult) Cacheable() bool {
	return r.Complete && r.Error == ""
}

// StreamFragment is one increment of a streaming response. The final
// fragment of a stream has Done set; a fragment with Err set is always
// terminal.
type StreamFragment struct {
	Text     string
	Done     bool
	Err      error
	Provider ProviderID

	// Notice marks synthetic fragments injected by the router (for example
	// the provider-switch message) that are not model output.
	Notice bool
}
