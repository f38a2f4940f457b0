package scan

import (
	"sort"
	"strings"

	"github.com/yungbote/ecoscan-backend/internal/domain"
)

const (
	genericFactSuffix = " plays an important role in our ecosystem. Understanding and preserving natural elements is key to environmental sustainability."
	genericTip        = "Learn more about how you can help protect our environment. Small actions multiplied by millions of people can create significant positive change."
)

// GenerateEducationalContent maps each label to the first matching topic, or to a
// generic entry naming the concept, and returns the entries by descending score.
func (c *Catalog) GenerateEducationalContent(labels []domain.Label) []domain.ContentEntry {
	out := make([]domain.ContentEntry, 0, len(labels))
	for _, l := range labels {
		entry := domain.ContentEntry{Concept: l.Concept, Score: l.Score}
		if t, ok := c.MatchTopic(l.Concept); ok {
			entry.Fact = t.Fact
			entry.Tip = t.Tip
		} else {
			entry.Fact = genericFact(l.Concept)
			entry.Tip = genericTip
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// GenerateEducationalContent uses the embedded catalog.
func GenerateEducationalContent(labels []domain.Label) []domain.ContentEntry {
	return DefaultCatalog().GenerateEducationalContent(labels)
}

func genericFact(concept string) string {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		concept = "This element"
	}
	return concept + genericFactSuffix
}
