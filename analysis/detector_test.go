// analysis/detector_test.go
package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbiterhq/arbiter/analysis"
	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	"github.com/arbiterhq/arbiter/model"
)

func mustCondition(t *testing.T, attribute, operator string, value model.AttributeValue) model.AttributeCondition {
	t.Helper()
	cond, err := model.NewCondition(attribute, operator, value)
	assert.NoError(t, err)
	return cond
}

func departmentPolicy(t *testing.T, id, effect string, priority int, department string) model.Policy {
	t.Helper()
	return model.Policy{
		ID:       id,
		Name:     id,
		Effect:   effect,
		Priority: priority,
		Status:   model.StatusActive,
		Rules: []model.PolicyRule{{
			Subject: []model.AttributeCondition{
				mustCondition(t, "department", model.OpEquals, model.StringValue(department)),
			},
			Actions: []string{"read"},
		}},
	}
}

func conflictsOfType(conflicts []model.Conflict, conflictType string) []model.Conflict {
	var out []model.Conflict
	for _, c := range conflicts {
		if c.Type == conflictType {
			out = append(out, c)
		}
	}
	return out
}

func TestDetectConflicts_Preconditions(t *testing.T) {
	detector := analysis.NewDetector()
	ctx := context.Background()

	t.Run("NilSnapshot", func(t *testing.T) {
		_, _, err := detector.DetectConflicts(ctx, nil)
		assert.ErrorIs(t, err, arbiter_errors.ErrNilSnapshot)
	})

	t.Run("EmptyPolicies", func(t *testing.T) {
		_, _, err := detector.DetectConflicts(ctx, &model.Snapshot{})
		assert.ErrorIs(t, err, arbiter_errors.ErrEmptyPolicySnapshot)
	})
}

func TestDetectEffectConflicts(t *testing.T) {
	detector := analysis.NewDetector()
	ctx := context.Background()

	t.Run("OppositeEffects_OverlappingRules", func(t *testing.T) {
		snapshot := &model.Snapshot{Policies: []model.Policy{
			departmentPolicy(t, "allow-eng", model.EffectAllow, 10, "engineering"),
			departmentPolicy(t, "deny-eng", model.EffectDeny, 10, "engineering"),
		}}

		conflicts, failed, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)
		assert.Empty(t, failed)

		effect := conflictsOfType(conflicts, model.ConflictEffect)
		assert.Len(t, effect, 1)
		c := effect[0]
		assert.ElementsMatch(t, []string{"allow-eng", "deny-eng"}, c.InvolvedPolicies)
		assert.Equal(t, []string{"allow-eng#0|deny-eng#0"}, c.ConflictingRules)
		// 40 base + 30 equal priority + 5 for the one overlapping pair.
		assert.Equal(t, 75, c.RiskScore)
		assert.Equal(t, model.SeverityHigh, c.Severity)
		assert.False(t, c.AutoResolvable)
	})

	t.Run("DifferentPriorities_AutoResolvable", func(t *testing.T) {
		snapshot := &model.Snapshot{Policies: []model.Policy{
			departmentPolicy(t, "allow-eng", model.EffectAllow, 10, "engineering"),
			departmentPolicy(t, "deny-eng", model.EffectDeny, 50, "engineering"),
		}}

		conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)

		effect := conflictsOfType(conflicts, model.ConflictEffect)
		assert.Len(t, effect, 1)
		// 40 base + 5 for the overlapping pair; gap exceeds 10.
		assert.Equal(t, 45, effect[0].RiskScore)
		assert.True(t, effect[0].AutoResolvable)
	})

	t.Run("DisjointSubjects_NoEffectConflict", func(t *testing.T) {
		// Opposite effects but rules that can never apply to the same
		// request.
		snapshot := &model.Snapshot{Policies: []model.Policy{
			departmentPolicy(t, "allow-eng", model.EffectAllow, 10, "engineering"),
			departmentPolicy(t, "deny-fin", model.EffectDeny, 10, "finance"),
		}}

		conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)
		assert.Empty(t, conflictsOfType(conflicts, model.ConflictEffect))
	})

	t.Run("InactivePoliciesExcluded", func(t *testing.T) {
		inactive := departmentPolicy(t, "deny-eng", model.EffectDeny, 10, "engineering")
		inactive.Status = model.StatusInactive
		snapshot := &model.Snapshot{Policies: []model.Policy{
			departmentPolicy(t, "allow-eng", model.EffectAllow, 10, "engineering"),
			inactive,
		}}

		conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)
		assert.Empty(t, conflictsOfType(conflicts, model.ConflictEffect))
	})
}

func TestDetectPriorityOverlaps(t *testing.T) {
	detector := analysis.NewDetector()
	ctx := context.Background()

	t.Run("SharedPriority_MixedEffects", func(t *testing.T) {
		// Disjoint subjects: no effect conflict, but the shared
		// priority with mixed effects still surfaces.
		snapshot := &model.Snapshot{Policies: []model.Policy{
			departmentPolicy(t, "allow-eng", model.EffectAllow, 10, "engineering"),
			departmentPolicy(t, "deny-fin", model.EffectDeny, 10, "finance"),
		}}

		conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)

		priority := conflictsOfType(conflicts, model.ConflictPriority)
		assert.Len(t, priority, 1)
		c := priority[0]
		assert.ElementsMatch(t, []string{"allow-eng", "deny-fin"}, c.InvolvedPolicies)
		assert.Equal(t, 80, c.RiskScore) // 70 + 5*2
		assert.Equal(t, model.SeverityHigh, c.Severity)
		assert.True(t, c.AutoResolvable)
	})

	t.Run("SharedPriority_SameEffect_NoConflict", func(t *testing.T) {
		snapshot := &model.Snapshot{Policies: []model.Policy{
			departmentPolicy(t, "a", model.EffectAllow, 10, "engineering"),
			departmentPolicy(t, "b", model.EffectAllow, 10, "finance"),
		}}

		conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)
		assert.Empty(t, conflictsOfType(conflicts, model.ConflictPriority))
	})

	t.Run("OverlappingPair_ReportsBothEffectAndPriority", func(t *testing.T) {
		snapshot := &model.Snapshot{Policies: []model.Policy{
			departmentPolicy(t, "allow-eng", model.EffectAllow, 10, "engineering"),
			departmentPolicy(t, "deny-eng", model.EffectDeny, 10, "engineering"),
		}}

		conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)
		assert.Len(t, conflictsOfType(conflicts, model.ConflictEffect), 1)
		assert.Len(t, conflictsOfType(conflicts, model.ConflictPriority), 1)
	})
}

func TestDetectRuleContradictions(t *testing.T) {
	detector := analysis.NewDetector()
	ctx := context.Background()

	policy := model.Policy{
		ID:       "mixed-grants",
		Name:     "mixed-grants",
		Effect:   model.EffectAllow,
		Priority: 10,
		Status:   model.StatusActive,
		Rules: []model.PolicyRule{
			{
				Resource: []model.AttributeCondition{
					mustCondition(t, "repository", model.OpEquals, model.StringValue("payments")),
				},
				Actions: []string{"read"},
			},
			{
				Resource: []model.AttributeCondition{
					mustCondition(t, "repository", model.OpEquals, model.StringValue("payments")),
				},
				Actions: []string{"delete"},
			},
		},
	}

	snapshot := &model.Snapshot{Policies: []model.Policy{policy}}
	conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
	assert.NoError(t, err)

	contradictions := conflictsOfType(conflicts, model.ConflictContradiction)
	assert.Len(t, contradictions, 1)
	c := contradictions[0]
	assert.Equal(t, []string{"mixed-grants"}, c.InvolvedPolicies)
	assert.Equal(t, []string{"mixed-grants#0", "mixed-grants#1"}, c.ConflictingRules)
	assert.Equal(t, 45, c.RiskScore)
	assert.Equal(t, model.SeverityMedium, c.Severity)
	assert.False(t, c.AutoResolvable)
}

func TestDetectScopeAmbiguities(t *testing.T) {
	detector := analysis.NewDetector()
	ctx := context.Background()

	policy := model.Policy{
		ID:              "repo-access",
		Name:            "repo-access",
		Effect:          model.EffectAllow,
		Priority:        10,
		Status:          model.StatusActive,
		ApplicableRoles: []string{"maintainer"},
		Rules: []model.PolicyRule{{
			Resource: []model.AttributeCondition{
				mustCondition(t, "repository", model.OpEquals, model.StringValue("payments")),
			},
			Actions: []string{"read"},
		}},
	}
	snapshot := &model.Snapshot{
		Policies: []model.Policy{policy},
		Roles: []model.Role{{
			ID:          "maintainer",
			Name:        "maintainer",
			Permissions: []string{"payments"},
		}},
	}

	conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
	assert.NoError(t, err)

	scope := conflictsOfType(conflicts, model.ConflictScope)
	assert.Len(t, scope, 1)
	assert.Equal(t, 50, scope[0].RiskScore)
	assert.Equal(t, model.SeverityMedium, scope[0].Severity)
	assert.False(t, scope[0].AutoResolvable)
}

func TestDetectTemporalConflicts(t *testing.T) {
	detector := analysis.NewDetector()
	ctx := context.Background()

	makePolicy := func(windows ...string) model.Policy {
		conds := make([]model.AttributeCondition, 0, len(windows))
		for _, w := range windows {
			conds = append(conds, mustCondition(t, "time", model.OpEquals, model.StringValue(w)))
		}
		return model.Policy{
			ID:       "windowed",
			Name:     "windowed",
			Effect:   model.EffectAllow,
			Priority: 10,
			Status:   model.StatusActive,
			Rules: []model.PolicyRule{{
				Environment: conds,
				Actions:     []string{"read"},
			}},
		}
	}

	t.Run("OverlappingWindows", func(t *testing.T) {
		snapshot := &model.Snapshot{Policies: []model.Policy{makePolicy("09:00-17:00", "16:00-18:00")}}
		conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)

		temporal := conflictsOfType(conflicts, model.ConflictTemporal)
		assert.Len(t, temporal, 1)
		assert.Equal(t, 25, temporal[0].RiskScore)
		assert.Equal(t, model.SeverityLow, temporal[0].Severity)
		assert.True(t, temporal[0].AutoResolvable)
	})

	t.Run("AdjacentWindows_NoOverlap", func(t *testing.T) {
		snapshot := &model.Snapshot{Policies: []model.Policy{makePolicy("09:00-12:00", "12:00-17:00")}}
		conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)
		assert.Empty(t, conflictsOfType(conflicts, model.ConflictTemporal))
	})

	t.Run("MalformedWindowSkipped", func(t *testing.T) {
		snapshot := &model.Snapshot{Policies: []model.Policy{makePolicy("not-a-window", "09:00-17:00")}}
		conflicts, failed, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)
		assert.Empty(t, failed)
		assert.Empty(t, conflictsOfType(conflicts, model.ConflictTemporal))
	})
}

func TestConditionOverlap(t *testing.T) {
	detector := analysis.NewDetector()
	ctx := context.Background()

	t.Run("IdenticalPolicies_FullOverlap", func(t *testing.T) {
		p1 := departmentPolicy(t, "a", model.EffectAllow, 10, "engineering")
		p2 := departmentPolicy(t, "b", model.EffectAllow, 20, "engineering")

		assert.Equal(t, 100.0, analysis.ConditionOverlapPercentage(p1, p2))

		snapshot := &model.Snapshot{Policies: []model.Policy{p1, p2}}
		conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)

		overlap := conflictsOfType(conflicts, model.ConflictCondition)
		assert.Len(t, overlap, 1)
		assert.Equal(t, 60, overlap[0].RiskScore) // round(100 * 0.6)
		assert.Equal(t, model.SeverityLow, overlap[0].Severity)
		assert.True(t, overlap[0].AutoResolvable)
	})

	t.Run("Directional", func(t *testing.T) {
		narrow := departmentPolicy(t, "narrow", model.EffectAllow, 10, "engineering")
		wide := departmentPolicy(t, "wide", model.EffectAllow, 20, "engineering")
		wide.Rules[0].Subject = append(wide.Rules[0].Subject,
			mustCondition(t, "clearance", model.OpGreaterThan, model.NumberValue(2)),
			mustCondition(t, "region", model.OpIn, model.ListValue("eu")),
		)

		// All of narrow's conditions appear in wide, but not the other
		// way around.
		assert.Equal(t, 100.0, analysis.ConditionOverlapPercentage(narrow, wide))
		assert.InDelta(t, 33.3, analysis.ConditionOverlapPercentage(wide, narrow), 0.1)
	})

	t.Run("BelowThreshold_NoConflict", func(t *testing.T) {
		p1 := departmentPolicy(t, "a", model.EffectAllow, 10, "engineering")
		p2 := departmentPolicy(t, "b", model.EffectAllow, 20, "finance")

		snapshot := &model.Snapshot{Policies: []model.Policy{p1, p2}}
		conflicts, _, err := detector.DetectConflicts(ctx, snapshot)
		assert.NoError(t, err)
		assert.Empty(t, conflictsOfType(conflicts, model.ConflictCondition))
	})
}
