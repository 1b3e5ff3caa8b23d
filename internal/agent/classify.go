package agent

import (
	"strings"

	"github.com/halcyon-health/halcyon/internal/types"
)

// domainKeywords maps trigger words to the domain they indicate. Order of
// evaluation is fixed so a query mentioning several categories classifies
// deterministically.
var domainKeywords = []struct {
	domain types.Domain
	words  []string
}{
	{types.DomainLabInterpretation, []string{"lab", "blood", "cholesterol", "glucose", "vitamin", "ldl", "hdl", "a1c", "triglyceride"}},
	{types.DomainGenetics, []string{"gene", "dna", "mutation", "variant"}},
	{types.DomainMicrobiome, []string{"microbiome", "gut", "bacteria", "probiotic"}},
	{types.DomainSymptoms, []string{"pain", "symptom", "ache"}},
	{types.DomainMedications, []string{"medication", "drug", "dosage"}},
	{types.DomainNutrition, []string{"diet", "nutrition", "food", "protein"}},
}

// Classify assigns a health domain to a query by keyword match, falling
// back to the general domain.
func Classify(query string) types.Domain {
	lower := strings.ToLower(query)
	for _, dk := range domainKeywords {
		for _, w := range dk.words {
			if strings.Contains(lower, w) {
				return dk.domain
			}
		}
	}
	return types.DomainGeneral
}
