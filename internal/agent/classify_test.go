package agent

import (
	"testing"

	"github.com/halcyon-health/halcyon/internal/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  types.Domain
	}{
		{"What does an LDL of 120 mean?", types.DomainLabInterpretation},
		{"my blood test results", types.DomainLabInterpretation},
		{"is this gene variant pathogenic", types.DomainGenetics},
		{"what does my DNA say", types.DomainGenetics},
		{"how do probiotics affect gut health", types.DomainMicrobiome},
		{"I have a dull ache in my shoulder", types.DomainSymptoms},
		{"what dosage of ibuprofen is safe", types.DomainMedications},
		{"how much protein should I eat", types.DomainNutrition},
		{"tell me something interesting", types.DomainGeneral},
		{"", types.DomainGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := Classify(tt.query); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if got := Classify("MY CHOLESTEROL IS HIGH"); got != types.DomainLabInterpretation {
		t.Errorf("got %s", got)
	}
}
