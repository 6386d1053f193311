// analysis/overlap.go
package analysis

import (
	"sort"

	"github.com/arbiterhq/arbiter/model"
)

// BuildOverlapMatrix compares every pair of active policies and ranks
// them by conflict risk. The matrix is a reporting artifact only; the
// evaluator never consults it.
func BuildOverlapMatrix(policies []model.Policy) []model.OverlapRecord {
	active := make([]model.Policy, 0, len(policies))
	for _, p := range policies {
		if p.IsActive() {
			active = append(active, p)
		}
	}

	var records []model.OverlapRecord
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			records = append(records, overlapRecord(active[i], active[j]))
		}
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].ConflictRisk > records[b].ConflictRisk
	})
	return records
}

func overlapRecord(p1, p2 model.Policy) model.OverlapRecord {
	pct := ConditionOverlapPercentage(p1, p2)

	var types []string
	effectsDiffer := p1.Effect != p2.Effect
	if effectsDiffer {
		types = append(types, model.OverlapEffect)
	}
	delta := p1.Priority - p2.Priority
	if delta < 0 {
		delta = -delta
	}
	if delta <= 10 {
		types = append(types, model.OverlapPriority)
	}
	if pct > 50 {
		types = append(types, model.OverlapConditions)
	}

	risk := pct * float64(len(types)) / 3.0
	if effectsDiffer {
		risk *= 1.5
	}

	return model.OverlapRecord{
		PolicyA:           p1.ID,
		PolicyB:           p2.ID,
		OverlapPercentage: pct,
		OverlapTypes:      types,
		ConflictRisk:      risk,
	}
}
