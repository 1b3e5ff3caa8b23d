// Package server exposes the agent over HTTP: one query route that
// translates the turn's event sequence into server-sent events, plus a
// health probe. It carries no auth and no persistence.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/halcyon-health/halcyon/internal/httputil"
	"github.com/halcyon-health/halcyon/internal/types"
)

// QueryProcessor is the agent surface the routes need.
type QueryProcessor interface {
	ProcessHealthQuery(ctx context.Context, query, sessionID string) <-chan types.AgentEvent
}

// AvailabilityChecker reports whether the local inference backend is usable.
type AvailabilityChecker interface {
	Available(ctx context.Context) error
}

type Handler struct {
	agent   QueryProcessor
	local   AvailabilityChecker
	version string
}

func NewHandler(agent QueryProcessor, local AvailabilityChecker, version string) *Handler {
	return &Handler{agent: agent, local: local, version: version}
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// Query handles POST /v1/query. The response is an SSE stream carrying one
// event per lifecycle step of the turn.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}
	if req.Query == "" {
		httputil.WriteBadRequestError(w, reqID, "query is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = reqID
	}

	events := h.agent.ProcessHealthQuery(r.Context(), req.Query, req.SessionID)
	streamEvents(w, r, reqID, events)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Local   string `json:"local_provider"`
}

// Health handles GET /halcyon/v1/health. The local backend being down does
// not make the service unhealthy: the cloud path still works.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Version: h.version, Local: "available"}
	if h.local != nil {
		if err := h.local.Available(r.Context()); err != nil {
			resp.Local = "unavailable"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
