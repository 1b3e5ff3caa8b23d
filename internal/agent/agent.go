// Package agent orchestrates one health-query turn: emergency screening,
// classification, retrieval, completion, and response formatting, surfaced
// to the caller as an ordered stream of lifecycle events.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/halcyon-health/halcyon/internal/config"
	"github.com/halcyon-health/halcyon/internal/provider"
	"github.com/halcyon-health/halcyon/internal/retrieval"
	"github.com/halcyon-health/halcyon/internal/telemetry"
	"github.com/halcyon-health/halcyon/internal/types"
)

// errorMessage is the only failure text surfaced to callers. Raw error
// detail stays in the logs.
const errorMessage = "I'm sorry, I wasn't able to process that question. Please try again."

type Agent struct {
	router   provider.Provider
	enhancer *retrieval.Enhancer
	cfg      func() config.AgentConfig
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

func New(router provider.Provider, enhancer *retrieval.Enhancer, cfg func() config.AgentConfig, logger *slog.Logger, metrics *telemetry.Metrics) *Agent {
	return &Agent{router: router, enhancer: enhancer, cfg: cfg, logger: logger, metrics: metrics}
}

// ProcessHealthQuery runs one turn and returns its event stream. The
// channel always yields run_started first and run_stopped last; an error
// event, if any, arrives immediately before run_stopped. The caller owns
// ctx and may cancel mid-turn.
func (a *Agent) ProcessHealthQuery(ctx context.Context, query, sessionID string) <-chan types.AgentEvent {
	events := make(chan types.AgentEvent, 8)
	turnID := uuid.NewString()

	go func() {
		defer close(events)

		emit := func(kind types.AgentEventKind, payload any) {
			events <- types.AgentEvent{
				Kind:      kind,
				SessionID: sessionID,
				TurnID:    turnID,
				Timestamp: time.Now().UTC(),
				Payload:   payload,
			}
		}

		var failed error
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("turn panicked", "session_id", sessionID, "turn_id", turnID, "panic", r)
				emit(types.EventError, types.ErrorPayload{Message: errorMessage})
			} else if failed != nil {
				emit(types.EventError, types.ErrorPayload{Message: errorMessage})
			}
			emit(types.EventRunStopped, nil)
		}()

		emit(types.EventRunStarted, nil)

		cfg := a.cfg()
		emergency := RecognizeEmergency(query)
		if emergency {
			a.metrics.RecordEmergency()
			a.logger.Warn("emergency keywords detected", "session_id", sessionID, "turn_id", turnID)
			emit(types.EventEmergencyDetected, emergencyPayload(cfg))
		}

		domain := Classify(query)
		a.logger.Info("turn started",
			"session_id", sessionID,
			"turn_id", turnID,
			"domain", domain,
			"query_len", len(query),
		)

		sources, err := a.enhancer.Retrieve(ctx, query, domain)
		if err != nil {
			a.logger.Error("retrieval failed", "session_id", sessionID, "turn_id", turnID, "error", err)
			a.metrics.RecordQuery(string(domain), "error")
			failed = err
			return
		}
		a.metrics.RecordRetrievalMatches(len(sources))
		emit(types.EventContextRetrieved, types.ContextPayload{Sources: sources, Domain: domain})

		prompt := types.Prompt{
			Query:             query,
			Domain:            domain,
			Context:           retrieval.FormatContext(sources),
			IncludeDisclaimer: true,
		}
		res, err := a.router.Complete(ctx, prompt, types.CompletionOptions{})
		if err != nil {
			a.logger.Error("completion failed", "session_id", sessionID, "turn_id", turnID, "error", err)
			a.metrics.RecordQuery(string(domain), "error")
			failed = err
			return
		}

		resp := buildResponse(res.Text, sources, domain, sessionID, emergency, cfg.IncludeDisclaimer)
		emit(types.EventResponseReady, types.ResponsePayload{Response: resp})

		a.metrics.RecordQuery(string(domain), "ok")
		a.logger.Info("turn finished",
			"session_id", sessionID,
			"turn_id", turnID,
			"provider", res.Provider,
			"confidence", resp.Confidence,
			"sources", len(resp.Sources),
			"urgency", resp.Urgency,
		)
	}()

	return events
}
