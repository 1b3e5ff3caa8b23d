package types

import "time"

// AgentEventKind identifies one step in the orchestration lifecycle of a
// single agent turn.
type AgentEventKind string

const (
	EventRunStarted        AgentEventKind = "run_started"
	EventEmergencyDetected AgentEventKind = "emergency_detected"
	EventContextRetrieved  AgentEventKind = "context_retrieved"
	EventResponseReady     AgentEventKind = "response_ready"
	EventError             AgentEventKind = "error"
	EventRunStopped        AgentEventKind = "run_stopped"
)

// AgentEvent is one observable step of an agent turn. Events for a turn are
// emitted in strict sequence: run_started first, run_stopped last (even
// after an error), with error inserted immediately before run_stopped.
type AgentEvent struct {
	Kind      AgentEventKind `json:"kind"`
	SessionID string         `json:"session_id"`
	TurnID    string         `json:"turn_id"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   any            `json:"payload,omitempty"`
}

// EmergencyPayload accompanies emergency_detected events.
type EmergencyPayload struct {
	Message  string             `json:"message"`
	Contacts []EmergencyContact `json:"contacts"`
}

type EmergencyContact struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// ContextPayload accompanies context_retrieved events.
type ContextPayload struct {
	Sources []RetrievedSource `json:"sources"`
	Domain  Domain            `json:"domain"`
}

// ResponsePayload accompanies response_ready events.
type ResponsePayload struct {
	Response StructuredResponse `json:"response"`
}

// ErrorPayload accompanies error events. Message is always user-safe: raw
// exception detail and credentials never appear here.
type ErrorPayload struct {
	Message string `json:"message"`
}
