package router

import (
	"strings"

	"github.com/halcyon-health/halcyon/internal/types"
)

// lowQualityPhrases are hedges that mark a local result as not worth
// trusting. Matching is case-insensitive substring.
var lowQualityPhrases = []string{
	"i'm not sure",
	"i am not sure",
	"cannot provide",
	"can't provide",
	"beyond my capabilities",
	"i don't have enough information",
	"unable to answer",
}

func isLowQuality(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range lowQualityPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// hardDomains are subject areas the local model is known to handle poorly.
var hardDomains = map[types.Domain]bool{
	types.DomainGenetics:   true,
	types.DomainImmunology: true,
}

// complexityKeywords flag queries that warrant the cloud path outright.
var complexityKeywords = []string{
	"differential diagnosis",
	"rare disease",
	"clinical trial",
	"drug interaction",
	"contraindication",
}

// complexQueryLength is the query size above which the local model tends to
// lose the thread.
const complexQueryLength = 400

// assessComplexity is the cheap pre-assessment run before streaming: long
// queries, hard domains, and complexity keywords all route straight to the
// cloud when fallback is enabled.
func assessComplexity(prompt types.Prompt) bool {
	if len(prompt.Query) > complexQueryLength {
		return true
	}
	if hardDomains[prompt.Domain] {
		return true
	}
	lower := strings.ToLower(prompt.Query)
	for _, kw := range complexityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
