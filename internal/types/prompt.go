package types

// Prompt is the canonical internal representation of one inference request.
// It is constructed per call and never persisted.
type Prompt struct {
	// Query is the user's free-text question.
	Query string `json:"query"`

	// Domain tags the query with a medical subject area, when known.
	Domain Domain `json:"domain,omitempty"`

	// Context carries prior text the model should treat as already
	// established: retrieved reference passages or partial output from an
	// abandoned stream.
	Context string `json:"context,omitempty"`

	// SafetyInstructions are extra system-level constraints appended to the
	// standard safety preamble.
	SafetyInstructions string `json:"safety_instructions,omitempty"`

	// IncludeDisclaimer asks the provider to remind the model to close with
	// a medical disclaimer.
	IncludeDisclaimer bool `json:"include_disclaimer"`
}

// CompletionOptions are per-call generation parameters. Nil pointer fields
// mean "use the backend default".
type CompletionOptions struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// EstimateTokens approximates the token count of a text as len/4. The same
// heuristic is applied to every provider so usage numbers stay comparable.
func EstimateTokens(text string) int {
	return len(text) / 4
}
