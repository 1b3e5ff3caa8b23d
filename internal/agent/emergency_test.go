package agent

import (
	"testing"

	"github.com/halcyon-health/halcyon/internal/config"
)

func TestRecognizeEmergency(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"I have chest pain and can't breathe", true},
		{"I think I'm having a heart attack", true},
		{"thinking about suicide", true},
		{"my friend took an overdose", true},
		{"what's a healthy breakfast", false},
		{"my chest feels fine after exercise", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := RecognizeEmergency(tt.query); got != tt.want {
			t.Errorf("RecognizeEmergency(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestEmergencyPayloadContacts(t *testing.T) {
	payload := emergencyPayload(config.DefaultConfig().Agent)
	if len(payload.Contacts) != 3 {
		t.Fatalf("contacts = %d, want 3", len(payload.Contacts))
	}
	if payload.Contacts[0].Number != "911" {
		t.Errorf("first contact %+v", payload.Contacts[0])
	}
	if payload.Message == "" {
		t.Error("empty safety message")
	}
}
