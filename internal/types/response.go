package types

import "time"

// StructuredResponse is the final answer surfaced to the caller at the end
// of an agent turn.
type StructuredResponse struct {
	Text       string           `json:"text"`
	Sources    []ResponseSource `json:"sources"`
	Confidence float64          `json:"confidence"`
	Urgency    Urgency          `json:"urgency"`
	FollowUps  []FollowUp       `json:"follow_ups,omitempty"`
	Domains    []Domain         `json:"domains"`
	Timestamp  time.Time        `json:"timestamp"`
	SessionID  string           `json:"session_id"`
}

type ResponseSource struct {
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
	Domain     Domain  `json:"domain"`
}

type FollowUp struct {
	Type        string `json:"type"`
	Timeframe   string `json:"timeframe"`
	Description string `json:"description"`
}
