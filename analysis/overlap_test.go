// analysis/overlap_test.go
package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbiterhq/arbiter/analysis"
	"github.com/arbiterhq/arbiter/model"
)

func TestBuildOverlapMatrix(t *testing.T) {
	t.Run("IdenticalConditions_OppositeEffects", func(t *testing.T) {
		p1 := departmentPolicy(t, "allow-eng", model.EffectAllow, 10, "engineering")
		p2 := departmentPolicy(t, "deny-eng", model.EffectDeny, 12, "engineering")

		records := analysis.BuildOverlapMatrix([]model.Policy{p1, p2})
		assert.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, "allow-eng", r.PolicyA)
		assert.Equal(t, "deny-eng", r.PolicyB)
		assert.Equal(t, 100.0, r.OverlapPercentage)
		assert.Equal(t, []string{model.OverlapEffect, model.OverlapPriority, model.OverlapConditions}, r.OverlapTypes)
		// 100 * 3/3 * 1.5 for the opposing effects.
		assert.Equal(t, 150.0, r.ConflictRisk)
	})

	t.Run("SameEffect_NoMultiplier", func(t *testing.T) {
		p1 := departmentPolicy(t, "a", model.EffectAllow, 10, "engineering")
		p2 := departmentPolicy(t, "b", model.EffectAllow, 100, "engineering")

		records := analysis.BuildOverlapMatrix([]model.Policy{p1, p2})
		assert.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, []string{model.OverlapConditions}, r.OverlapTypes)
		assert.InDelta(t, 100.0/3.0, r.ConflictRisk, 0.001)
	})

	t.Run("SortedByRiskDescending", func(t *testing.T) {
		hot1 := departmentPolicy(t, "hot-allow", model.EffectAllow, 10, "engineering")
		hot2 := departmentPolicy(t, "hot-deny", model.EffectDeny, 10, "engineering")
		cold := departmentPolicy(t, "cold", model.EffectAllow, 500, "finance")

		records := analysis.BuildOverlapMatrix([]model.Policy{cold, hot1, hot2})
		assert.Len(t, records, 3)
		for i := 1; i < len(records); i++ {
			assert.GreaterOrEqual(t, records[i-1].ConflictRisk, records[i].ConflictRisk)
		}
		assert.ElementsMatch(t, []string{"hot-allow", "hot-deny"}, []string{records[0].PolicyA, records[0].PolicyB})
	})

	t.Run("InactiveExcluded", func(t *testing.T) {
		p1 := departmentPolicy(t, "a", model.EffectAllow, 10, "engineering")
		p2 := departmentPolicy(t, "b", model.EffectDeny, 10, "engineering")
		p2.Status = model.StatusDraft

		assert.Empty(t, analysis.BuildOverlapMatrix([]model.Policy{p1, p2}))
	})
}
