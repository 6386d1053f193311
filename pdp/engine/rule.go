// pdp/engine/rule.go
package engine

import (
	"github.com/arbiterhq/arbiter/model"
	pdp_model "github.com/arbiterhq/arbiter/pdp/model"
)

// AppliesToRequest reports whether a rule matches a request: every
// non-empty condition group must be fully satisfied (groups AND
// together, conditions within a group AND together) and the request
// action must be listed or covered by the wildcard.
func AppliesToRequest(rule model.PolicyRule, request *pdp_model.AccessRequest) bool {
	if !actionListed(rule.Actions, request.Action) {
		return false
	}
	if !groupSatisfied(rule.Subject, request.Subject.Attributes) {
		return false
	}
	if !groupSatisfied(rule.Resource, request.Resource.Attributes) {
		return false
	}
	return groupSatisfied(rule.Environment, request.Environment)
}

// RulesOverlap reports whether two rules could apply to the same
// request: their action sets intersect (the wildcard intersects with
// anything) and both the subject and resource condition groups could
// overlap. An empty group matches everything, so it always overlaps.
func RulesOverlap(rule1, rule2 model.PolicyRule) bool {
	if !actionsIntersect(rule1.Actions, rule2.Actions) {
		return false
	}
	if !groupsOverlap(rule1.Subject, rule2.Subject) {
		return false
	}
	return groupsOverlap(rule1.Resource, rule2.Resource)
}

// Specificity is a weighted count of how narrowly a rule is scoped.
// Explanatory signal only; evaluation never consults it.
func Specificity(rule model.PolicyRule) int {
	score := 10*len(rule.Subject) + 10*len(rule.Resource) + 5*len(rule.Environment)
	wildcard := false
	for _, action := range rule.Actions {
		if action == model.ActionWildcard {
			wildcard = true
			break
		}
	}
	if !wildcard {
		score += 5 * len(rule.Actions)
	}
	return score
}

func groupSatisfied(group []model.AttributeCondition, attrs map[string]interface{}) bool {
	if len(group) == 0 {
		return true
	}
	for _, cond := range group {
		actual, present := attrs[cond.Attribute]
		if !present {
			return false
		}
		if !Matches(cond, actual) {
			return false
		}
	}
	return true
}

func groupsOverlap(group1, group2 []model.AttributeCondition) bool {
	if len(group1) == 0 || len(group2) == 0 {
		return true
	}
	for _, c1 := range group1 {
		for _, c2 := range group2 {
			if ConditionsOverlap(c1, c2) {
				return true
			}
		}
	}
	return false
}

func actionListed(actions []string, action string) bool {
	for _, a := range actions {
		if a == action || a == model.ActionWildcard {
			return true
		}
	}
	return false
}

func actionsIntersect(actions1, actions2 []string) bool {
	for _, a1 := range actions1 {
		if a1 == model.ActionWildcard {
			return len(actions2) > 0
		}
		for _, a2 := range actions2 {
			if a2 == model.ActionWildcard || a1 == a2 {
				return true
			}
		}
	}
	return false
}
