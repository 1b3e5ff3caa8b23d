package agent

import (
	"strings"

	"github.com/halcyon-health/halcyon/internal/config"
	"github.com/halcyon-health/halcyon/internal/types"
)

// emergencyKeywords are matched against the lower-cased query. The list is
// deliberately narrow: false negatives are worse than false positives here,
// but a broad net would fire on routine questions about these topics.
var emergencyKeywords = []string{
	"chest pain",
	"can't breathe",
	"cannot breathe",
	"difficulty breathing",
	"heart attack",
	"stroke",
	"suicide",
	"suicidal",
	"overdose",
	"severe bleeding",
	"unconscious",
	"seizure",
	"anaphylaxis",
}

const emergencyMessage = "If this is a medical emergency, stop and call emergency services now. Do not wait for an online answer."

const emergencyBanner = "**If you are experiencing a medical emergency, call 911 or your local emergency number immediately.**\n\n"

// RecognizeEmergency reports whether a query contains an emergency keyword.
func RecognizeEmergency(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func emergencyPayload(cfg config.AgentConfig) types.EmergencyPayload {
	contacts := make([]types.EmergencyContact, 0, len(cfg.EmergencyContacts))
	for _, c := range cfg.EmergencyContacts {
		contacts = append(contacts, types.EmergencyContact{Name: c.Name, Number: c.Number})
	}
	return types.EmergencyPayload{Message: emergencyMessage, Contacts: contacts}
}
