package types

// Domain classifies a health query or a knowledge document into a
// medical subject area.
type Domain string

const (
	DomainGeneral           Domain = "general"
	DomainLabInterpretation Domain = "lab_interpretation"
	DomainGenetics          Domain = "genetics"
	DomainImmunology        Domain = "immunology"
	DomainMicrobiome        Domain = "microbiome"
	DomainSymptoms          Domain = "symptoms"
	DomainMedications       Domain = "medications"
	DomainNutrition         Domain = "nutrition"
)

// Known returns true if d is one of the defined domains.
func (d Domain) Known() bool {
	switch d {
	case DomainGeneral, DomainLabInterpretation, DomainGenetics, DomainImmunology,
		DomainMicrobiome, DomainSymptoms, DomainMedications, DomainNutrition:
		return true
	default:
		return false
	}
}

func ParseDomain(s string) (Domain, bool) {
	d := Domain(s)
	if d.Known() {
		return d, true
	}
	return "", false
}

// Urgency is the triage level attached to a structured response.
type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyEmergency Urgency = "emergency"
)

// ProviderID identifies which completion backend produced a result.
type ProviderID string

const (
	ProviderLocal  ProviderID = "local"
	ProviderCloud  ProviderID = "cloud"
	ProviderHybrid ProviderID = "hybrid"
)
