package scan

import (
	"sort"
	"strings"

	"github.com/yungbote/ecoscan-backend/internal/domain"
)

// MaxResults caps the number of labels returned to the client.
const MaxResults = 6

// SelectTop keeps environmental candidates, drops case-insensitive duplicates (first
// occurrence wins), orders by descending score and truncates to limit.
func (c *Catalog) SelectTop(candidates []domain.Label, limit int) []domain.Label {
	if limit <= 0 {
		limit = MaxResults
	}
	seen := make(map[string]bool, len(candidates))
	out := make([]domain.Label, 0, len(candidates))
	for _, l := range candidates {
		concept := strings.TrimSpace(l.Concept)
		if concept == "" || !c.IsEnvironmental(concept) {
			continue
		}
		key := fold(concept)
		if seen[key] {
			continue
		}
		seen[key] = true
		l.Concept = concept
		l.Score = domain.ClampScore(l.Score)
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
