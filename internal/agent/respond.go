package agent

import (
	"time"

	"github.com/halcyon-health/halcyon/internal/types"
)

const healthDisclaimer = "\n\n---\nThis information is educational and not a substitute for professional medical advice. Consult a healthcare provider about your specific situation."

const (
	maxResponseSources       = 3
	defaultSourceConfidence  = 0.8
	defaultOverallConfidence = 0.7
)

// buildResponse shapes the raw completion text and retrieved sources into
// the final structured answer for one turn.
func buildResponse(text string, sources []types.RetrievedSource, domain types.Domain, sessionID string, emergency, includeDisclaimer bool) types.StructuredResponse {
	if len(sources) > maxResponseSources {
		sources = sources[:maxResponseSources]
	}

	respSources := make([]types.ResponseSource, 0, len(sources))
	var confSum float64
	for _, s := range sources {
		conf := s.Score
		if conf <= 0 {
			conf = defaultSourceConfidence
		}
		srcDomain := s.Metadata.Domain
		if srcDomain == "" {
			srcDomain = types.DomainGeneral
		}
		title := s.Citation
		if title == "" {
			title = s.Metadata.Source
		}
		respSources = append(respSources, types.ResponseSource{
			Title:      title,
			Confidence: conf,
			Domain:     srcDomain,
		})
		confSum += conf
	}

	confidence := defaultOverallConfidence
	if len(respSources) > 0 {
		confidence = confSum / float64(len(respSources))
	}

	if includeDisclaimer {
		text += healthDisclaimer
	}

	resp := types.StructuredResponse{
		Text:       text,
		Sources:    respSources,
		Confidence: confidence,
		Urgency:    types.UrgencyRoutine,
		Domains:    []types.Domain{domain},
		Timestamp:  time.Now().UTC(),
		SessionID:  sessionID,
	}

	if emergency {
		resp.Text = emergencyBanner + resp.Text
		resp.Urgency = types.UrgencyEmergency
		resp.FollowUps = []types.FollowUp{{
			Type:        "emergency",
			Timeframe:   "immediate",
			Description: "Seek emergency medical care now.",
		}}
	}

	return resp
}
