package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/halcyon-health/halcyon/internal/httputil"
	"github.com/halcyon-health/halcyon/internal/types"
)

// streamEvents forwards the turn's events to the client as SSE, one event
// per lifecycle step, named by the event kind. The channel closing ends the
// response; client disconnects cancel the request context, which the agent
// observes.
func streamEvents(w http.ResponseWriter, r *http.Request, reqID string, events <-chan types.AgentEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteInternalError(w, reqID, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Request-ID", reqID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				fmt.Fprintf(w, "data: [DONE]\n\n")
				flusher.Flush()
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("failed to encode agent event", "request_id", reqID, "kind", ev.Kind, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
			flusher.Flush()
		}
	}
}
