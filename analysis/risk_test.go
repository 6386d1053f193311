// analysis/risk_test.go
package analysis_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbiterhq/arbiter/analysis"
	"github.com/arbiterhq/arbiter/model"
)

func TestSeverityOf(t *testing.T) {
	lowImpact := model.ImpactAnalysis{SecurityRisk: model.RiskLow}

	cases := []struct {
		score    int
		impact   model.ImpactAnalysis
		expected string
	}{
		{81, lowImpact, model.SeverityCritical},
		{100, lowImpact, model.SeverityCritical},
		{10, model.ImpactAnalysis{SecurityRisk: model.RiskHigh}, model.SeverityCritical},
		{80, lowImpact, model.SeverityHigh},
		{61, lowImpact, model.SeverityHigh},
		{55, model.ImpactAnalysis{AffectedUsers: 25, SecurityRisk: model.RiskLow}, model.SeverityHigh},
		{60, lowImpact, model.SeverityMedium},
		{41, lowImpact, model.SeverityMedium},
		{30, model.ImpactAnalysis{AffectedUsers: 6, SecurityRisk: model.RiskLow}, model.SeverityMedium},
		{40, lowImpact, model.SeverityLow},
		{0, lowImpact, model.SeverityLow},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("score_%d_%s", tc.score, tc.expected), func(t *testing.T) {
			assert.Equal(t, tc.expected, analysis.SeverityOf(tc.score, tc.impact))
		})
	}
}

func TestAnalyzeImpact(t *testing.T) {
	roles := []model.Role{
		{ID: "eng", Name: "engineer"},
		{ID: "ops", Name: "operator"},
		{ID: "sales", Name: "sales"},
	}
	users := func(n int, roleID string) []model.User {
		out := make([]model.User, n)
		for i := range out {
			out[i] = model.User{ID: fmt.Sprintf("u-%s-%d", roleID, i), Roles: []string{roleID}}
		}
		return out
	}

	policyA := model.Policy{
		ID:              "a",
		ApplicableRoles: []string{"eng"},
		Rules: []model.PolicyRule{{
			Resource: []model.AttributeCondition{
				mustCondition(t, "repository", model.OpEquals, model.StringValue("payments")),
			},
			Actions: []string{"read"},
		}},
	}
	policyB := model.Policy{
		ID:              "b",
		ApplicableRoles: []string{"ops", "ghost-role"},
		Rules: []model.PolicyRule{{
			Resource: []model.AttributeCondition{
				mustCondition(t, "repository", model.OpIn, model.ListValue("billing", "payments")),
			},
			Actions: []string{"read"},
		}},
	}

	t.Run("CountsRolesUsersAndResources", func(t *testing.T) {
		all := append(users(2, "eng"), users(3, "ops")...)
		all = append(all, users(4, "sales")...)

		impact := analysis.AnalyzeImpact(policyA, policyB, roles, all)
		// ghost-role is declared but absent from the snapshot.
		assert.Equal(t, 2, impact.AffectedRoles)
		assert.Equal(t, 5, impact.AffectedUsers)
		assert.Equal(t, []string{"billing", "payments"}, impact.AffectedResources)
		assert.Equal(t, model.RiskMedium, impact.SecurityRisk)
		assert.Equal(t, model.RiskLow, impact.BusinessImpact)
	})

	t.Run("SecurityRiskHigh_ManyUsers", func(t *testing.T) {
		impact := analysis.AnalyzeImpact(policyA, policyB, roles, users(11, "eng"))
		assert.Equal(t, 11, impact.AffectedUsers)
		assert.Equal(t, model.RiskHigh, impact.SecurityRisk)
	})

	t.Run("NoDeclaredRoles_EmptyImpact", func(t *testing.T) {
		bare := model.Policy{ID: "bare"}
		impact := analysis.AnalyzeImpact(bare, bare, roles, users(5, "eng"))
		assert.Zero(t, impact.AffectedUsers)
		assert.Zero(t, impact.AffectedRoles)
		assert.Empty(t, impact.AffectedResources)
		assert.Equal(t, model.RiskLow, impact.SecurityRisk)
	})
}
