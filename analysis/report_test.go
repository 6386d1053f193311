// analysis/report_test.go
package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbiterhq/arbiter/analysis"
	"github.com/arbiterhq/arbiter/model"
)

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("FullReport", func(t *testing.T) {
		snapshot := &model.Snapshot{Policies: []model.Policy{
			departmentPolicy(t, "allow-eng", model.EffectAllow, 10, "engineering"),
			departmentPolicy(t, "deny-eng", model.EffectDeny, 10, "engineering"),
			departmentPolicy(t, "quiet", model.EffectAllow, 900, "sales"),
		}}

		report, err := analysis.Run(ctx, snapshot)
		assert.NoError(t, err)
		assert.Empty(t, report.FailedPasses)
		assert.False(t, report.GeneratedAt.IsZero())

		// effect conflict, priority overlap and full condition overlap
		// between the engineering pair.
		assert.Equal(t, 3, report.Aggregate.TotalConflicts)
		assert.Equal(t, 3, report.Aggregate.PoliciesScanned)
		assert.Equal(t, 1, report.Aggregate.ByType[model.ConflictEffect])
		assert.Equal(t, 1, report.Aggregate.ByType[model.ConflictPriority])
		assert.Equal(t, 1, report.Aggregate.ByType[model.ConflictCondition])
		assert.NotEmpty(t, report.OverlapMatrix)

		byID := make(map[string]model.PolicyMetrics)
		for _, m := range report.PolicyMetrics {
			byID[m.PolicyID] = m
		}
		assert.Len(t, byID, 3)
		assert.Equal(t, 3, byID["allow-eng"].ConflictCount)
		assert.Equal(t, model.SeverityHigh, byID["allow-eng"].MaxSeverity)
		assert.Zero(t, byID["quiet"].ConflictCount)
		assert.Empty(t, byID["quiet"].MaxSeverity)
		assert.Zero(t, byID["quiet"].MeanRiskScore)
	})

	t.Run("EmptySnapshot_Error", func(t *testing.T) {
		_, err := analysis.Run(ctx, &model.Snapshot{})
		assert.Error(t, err)
	})

	t.Run("CleanPolicies_EmptyFindings", func(t *testing.T) {
		snapshot := &model.Snapshot{Policies: []model.Policy{
			departmentPolicy(t, "a", model.EffectAllow, 10, "engineering"),
		}}

		report, err := analysis.Run(ctx, snapshot)
		assert.NoError(t, err)
		assert.Empty(t, report.Conflicts)
		assert.Zero(t, report.Aggregate.TotalConflicts)
		assert.Zero(t, report.Aggregate.MeanRiskScore)
	})
}
