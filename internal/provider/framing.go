package provider

import (
	"strings"

	"github.com/halcyon-health/halcyon/internal/types"
)

const (
	generalDisclaimer = "You are a health information assistant. You provide educational information only, not medical advice, diagnosis, or treatment. Always recommend consulting a qualified healthcare professional."

	emergencyNotice = "If the user describes a medical emergency, tell them to call their local emergency number immediately before anything else."

	disclaimerInstruction = "End your answer with a brief reminder that this is general information and not a substitute for professional medical advice."
)

// domainFraming holds one framing sentence per domain, prepended to prompts
// that carry a domain tag.
var domainFraming = map[types.Domain]string{
	types.DomainLabInterpretation: "The question concerns laboratory results. Explain reference ranges and what deviations can mean, without diagnosing.",
	types.DomainGenetics:          "The question concerns genetics. Explain variants and inheritance carefully and note that genetic counseling is the appropriate next step for personal results.",
	types.DomainImmunology:        "The question concerns the immune system. Be precise about mechanisms and avoid overstating certainty.",
	types.DomainMicrobiome:        "The question concerns the gut microbiome. Note that microbiome science is evolving and individual results vary.",
	types.DomainSymptoms:          "The question describes symptoms. Discuss common explanations but emphasize that symptoms require in-person evaluation.",
	types.DomainMedications:       "The question concerns medications. Never suggest dosage changes; defer to the prescribing clinician and pharmacist.",
	types.DomainNutrition:         "The question concerns nutrition. Give evidence-based guidance and note individual requirements differ.",
}

// framePrompt assembles the full text sent to the model: safety preamble,
// optional domain framing, prior context, extra instructions, the query,
// and the closing disclaimer instruction.
func framePrompt(p types.Prompt) string {
	var b strings.Builder
	b.WriteString(generalDisclaimer)
	b.WriteString("\n")
	b.WriteString(emergencyNotice)
	if f, ok := domainFraming[p.Domain]; ok && p.Domain != types.DomainGeneral {
		b.WriteString("\n")
		b.WriteString(f)
	}
	if p.SafetyInstructions != "" {
		b.WriteString("\n")
		b.WriteString(p.SafetyInstructions)
	}
	if p.IncludeDisclaimer {
		b.WriteString("\n")
		b.WriteString(disclaimerInstruction)
	}
	if p.Context != "" {
		b.WriteString("\n\nContext:\n")
		b.WriteString(p.Context)
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(p.Query)
	return b.String()
}

// systemMessage returns only the instruction half of the framing, for
// backends that separate system and user messages.
func systemMessage(p types.Prompt) string {
	var b strings.Builder
	b.WriteString(generalDisclaimer)
	b.WriteString("\n")
	b.WriteString(emergencyNotice)
	if f, ok := domainFraming[p.Domain]; ok && p.Domain != types.DomainGeneral {
		b.WriteString("\n")
		b.WriteString(f)
	}
	if p.SafetyInstructions != "" {
		b.WriteString("\n")
		b.WriteString(p.SafetyInstructions)
	}
	if p.IncludeDisclaimer {
		b.WriteString("\n")
		b.WriteString(disclaimerInstruction)
	}
	return b.String()
}

// userMessage returns the content half: context plus query.
func userMessage(p types.Prompt) string {
	if p.Context == "" {
		return p.Query
	}
	return "Context:\n" + p.Context + "\n\nQuestion: " + p.Query
}
