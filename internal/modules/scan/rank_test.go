package scan

import (
	"testing"

	"github.com/yungbote/ecoscan-backend/internal/domain"
)

func TestSelectTopFiltersDedupesSortsAndLimits(t *testing.T) {
	in := []domain.Label{
		{Concept: "Tree", Score: 0.7, Type: domain.LabelTypeLabel},
		{Concept: "tree", Score: 0.95, Type: domain.LabelTypeWeb},
		{Concept: "Bicycle", Score: 0.99, Type: domain.LabelTypeLabel},
		{Concept: "Leaf", Score: 0.6, Type: domain.LabelTypeLabel},
		{Concept: "Flower", Score: 0.8, Type: domain.LabelTypeLabel},
		{Concept: "Garden", Score: 0.5, Type: domain.LabelTypeLabel},
		{Concept: "Grass Park", Score: 0.4, Type: domain.LabelTypeLabel},
		{Concept: "Sky", Score: 0.3, Type: domain.LabelTypeLabel},
		{Concept: "Cloud", Score: 0.2, Type: domain.LabelTypeLabel},
		{Concept: "  ", Score: 0.9, Type: domain.LabelTypeLabel},
	}
	got := DefaultCatalog().SelectTop(in, MaxResults)
	if len(got) != MaxResults {
		t.Fatalf("len: got=%d want=%d", len(got), MaxResults)
	}
	if got[0].Concept != "Flower" {
		t.Fatalf("top: got=%q want=Flower", got[0].Concept)
	}
	trees := 0
	for i, l := range got {
		if l.Concept == "Bicycle" {
			t.Fatalf("non-environmental label kept")
		}
		if l.Concept == "Tree" || l.Concept == "tree" {
			trees++
			if l.Type != domain.LabelTypeLabel {
				t.Fatalf("dedupe should keep first occurrence: got type=%q", l.Type)
			}
		}
		if i > 0 && got[i-1].Score < l.Score {
			t.Fatalf("not sorted at %d: %v", i, got)
		}
	}
	if trees != 1 {
		t.Fatalf("case-insensitive dedupe: got %d tree entries", trees)
	}
}

func TestSelectTopClampsScores(t *testing.T) {
	got := DefaultCatalog().SelectTop([]domain.Label{
		{Concept: "Ocean", Score: 1.4},
		{Concept: "River", Score: -0.2},
	}, 0)
	if got[0].Score != 1 || got[1].Score != 0 {
		t.Fatalf("scores not clamped: %v", got)
	}
}
