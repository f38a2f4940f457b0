package scan

import "github.com/yungbote/ecoscan-backend/internal/domain"

const (
	noteNoMatches = "No environmental elements detected - showing sample data"
	noteTimeout   = "Provider timed out - showing sample data"
)

// mockLabels returns the fixed sample set. The full set is used when no provider is
// configured; the short one when a configured provider failed or found nothing.
func mockLabels(full bool) []domain.Label {
	labels := []domain.Label{
		{Concept: "Plant", Score: 0.85, Type: domain.LabelTypeMock},
		{Concept: "Tree", Score: 0.78, Type: domain.LabelTypeMock},
		{Concept: "Nature", Score: 0.92, Type: domain.LabelTypeMock},
		{Concept: "Green Environment", Score: 0.88, Type: domain.LabelTypeMock},
	}
	if full {
		labels = append(labels,
			domain.Label{Concept: "Forest", Score: 0.82, Type: domain.LabelTypeMock},
			domain.Label{Concept: "Ecosystem", Score: 0.75, Type: domain.LabelTypeMock},
		)
	}
	return labels
}

func unconfiguredNote(provider string) string {
	return "Using mock data - configure " + providerDisplayName(provider) + " API for real analysis"
}

func providerDisplayName(provider string) string {
	switch provider {
	case "clarifai":
		return "ClarifAI"
	case "vision":
		return "Google Vision"
	case "":
		return "a vision"
	default:
		return provider
	}
}
