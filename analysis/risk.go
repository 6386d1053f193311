// analysis/risk.go
package analysis

import (
	"sort"

	"github.com/arbiterhq/arbiter/model"
)

// SeverityOf classifies a conflict from its risk score and impact.
// The checks are ordered; the first matching clause wins.
func SeverityOf(riskScore int, impact model.ImpactAnalysis) string {
	if riskScore > 80 || impact.SecurityRisk == model.RiskHigh {
		return model.SeverityCritical
	}
	if riskScore > 60 || impact.AffectedUsers > 20 {
		return model.SeverityHigh
	}
	if riskScore > 40 || impact.AffectedUsers > 5 {
		return model.SeverityMedium
	}
	return model.SeverityLow
}

// AnalyzeImpact measures the blast radius of a conflict between two
// policies: the roles either policy applies to, the users holding any
// of those roles, and the resource values referenced by either
// policy's rules.
func AnalyzeImpact(policyA, policyB model.Policy, roles []model.Role, users []model.User) model.ImpactAnalysis {
	declared := make(map[string]struct{})
	for _, id := range policyA.ApplicableRoles {
		declared[id] = struct{}{}
	}
	for _, id := range policyB.ApplicableRoles {
		declared[id] = struct{}{}
	}

	affectedRoles := make(map[string]struct{})
	for _, role := range roles {
		if _, ok := declared[role.ID]; ok {
			affectedRoles[role.ID] = struct{}{}
		}
	}

	affectedUsers := 0
	for _, user := range users {
		for _, roleID := range user.Roles {
			if _, ok := affectedRoles[roleID]; ok {
				affectedUsers++
				break
			}
		}
	}

	resources := resourceValues(policyA)
	for r := range resourceValues(policyB) {
		resources[r] = struct{}{}
	}
	affectedResources := make([]string, 0, len(resources))
	for r := range resources {
		affectedResources = append(affectedResources, r)
	}
	sort.Strings(affectedResources)

	securityRisk := model.RiskLow
	switch {
	case affectedUsers > 10:
		securityRisk = model.RiskHigh
	case affectedUsers > 3:
		securityRisk = model.RiskMedium
	}

	businessImpact := model.RiskLow
	switch {
	case len(affectedResources) > 5:
		businessImpact = model.RiskHigh
	case len(affectedResources) > 2:
		businessImpact = model.RiskMedium
	}

	return model.ImpactAnalysis{
		AffectedUsers:     affectedUsers,
		AffectedRoles:     len(affectedRoles),
		AffectedResources: affectedResources,
		SecurityRisk:      securityRisk,
		BusinessImpact:    businessImpact,
	}
}

// resourceValues collects the string values referenced by a policy's
// resource conditions, keyed for deduplication.
func resourceValues(policy model.Policy) map[string]struct{} {
	values := make(map[string]struct{})
	for _, rule := range policy.Rules {
		for _, cond := range rule.Resource {
			switch cond.Value.Kind {
			case model.ValueString:
				values[cond.Value.Str] = struct{}{}
			case model.ValueStringList:
				for _, v := range cond.Value.List {
					values[v] = struct{}{}
				}
			}
		}
	}
	return values
}
