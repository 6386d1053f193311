// analysis/report.go
package analysis

import (
	"context"
	"time"

	"github.com/arbiterhq/arbiter/model"
)

// Run performs a full offline analysis of the snapshot: the six
// detector passes, the overlap matrix and the per-policy and
// aggregate metrics. Every artifact is derived fresh; nothing is
// retained between runs.
func Run(ctx context.Context, snapshot *model.Snapshot) (*model.AnalysisReport, error) {
	detector := NewDetector()
	conflicts, failedPasses, err := detector.DetectConflicts(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	report := &model.AnalysisReport{
		Conflicts:     conflicts,
		OverlapMatrix: BuildOverlapMatrix(snapshot.Policies),
		PolicyMetrics: buildPolicyMetrics(snapshot.Policies, conflicts),
		Aggregate:     buildAggregateMetrics(snapshot.Policies, conflicts),
		FailedPasses:  failedPasses,
		GeneratedAt:   time.Now(),
	}
	return report, nil
}

var severityRank = map[string]int{
	model.SeverityLow:      1,
	model.SeverityMedium:   2,
	model.SeverityHigh:     3,
	model.SeverityCritical: 4,
}

func buildPolicyMetrics(policies []model.Policy, conflicts []model.Conflict) []model.PolicyMetrics {
	metrics := make([]model.PolicyMetrics, 0, len(policies))
	for _, policy := range policies {
		m := model.PolicyMetrics{PolicyID: policy.ID, PolicyName: policy.Name}
		total := 0
		for _, c := range conflicts {
			if !involvesPolicy(c, policy.ID) {
				continue
			}
			m.ConflictCount++
			total += c.RiskScore
			if severityRank[c.Severity] > severityRank[m.MaxSeverity] {
				m.MaxSeverity = c.Severity
			}
		}
		if m.ConflictCount > 0 {
			m.MeanRiskScore = float64(total) / float64(m.ConflictCount)
		}
		metrics = append(metrics, m)
	}
	return metrics
}

func buildAggregateMetrics(policies []model.Policy, conflicts []model.Conflict) model.AggregateMetrics {
	agg := model.AggregateMetrics{
		TotalConflicts:  len(conflicts),
		BySeverity:      make(map[string]int),
		ByType:          make(map[string]int),
		PoliciesScanned: len(policies),
	}
	total := 0
	for _, c := range conflicts {
		agg.BySeverity[c.Severity]++
		agg.ByType[c.Type]++
		if c.AutoResolvable {
			agg.AutoResolvable++
		}
		total += c.RiskScore
	}
	if len(conflicts) > 0 {
		agg.MeanRiskScore = float64(total) / float64(len(conflicts))
	}
	return agg
}

func involvesPolicy(c model.Conflict, policyID string) bool {
	for _, id := range c.InvolvedPolicies {
		if id == policyID {
			return true
		}
	}
	return false
}
