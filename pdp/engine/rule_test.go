// pdp/engine/rule_test.go
package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/pdp/engine"
	pdp_model "github.com/arbiterhq/arbiter/pdp/model"
)

func subjectRule(t *testing.T, attribute, value string, actions ...string) model.PolicyRule {
	t.Helper()
	return model.PolicyRule{
		Subject: []model.AttributeCondition{
			mustCondition(t, attribute, model.OpEquals, model.StringValue(value)),
		},
		Actions: actions,
	}
}

func TestAppliesToRequest(t *testing.T) {
	rule := model.PolicyRule{
		Subject: []model.AttributeCondition{
			mustCondition(t, "department", model.OpEquals, model.StringValue("engineering")),
			mustCondition(t, "clearance", model.OpGreaterThan, model.NumberValue(2)),
		},
		Resource: []model.AttributeCondition{
			mustCondition(t, "classification", model.OpEquals, model.StringValue("internal")),
		},
		Actions: []string{"read", "list"},
	}

	request := func() *pdp_model.AccessRequest {
		return &pdp_model.AccessRequest{
			Subject: pdp_model.Subject{
				ID: "u-1",
				Attributes: map[string]interface{}{
					"department": "engineering",
					"clearance":  3,
				},
			},
			Resource: pdp_model.Resource{
				ID:         "doc-1",
				Attributes: map[string]interface{}{"classification": "internal"},
			},
			Action: "read",
		}
	}

	t.Run("AllGroupsSatisfied", func(t *testing.T) {
		assert.True(t, engine.AppliesToRequest(rule, request()))
	})

	t.Run("ActionNotListed", func(t *testing.T) {
		req := request()
		req.Action = "delete"
		assert.False(t, engine.AppliesToRequest(rule, req))
	})

	t.Run("WildcardAction", func(t *testing.T) {
		wild := rule
		wild.Actions = []string{model.ActionWildcard}
		req := request()
		req.Action = "delete"
		assert.True(t, engine.AppliesToRequest(wild, req))
	})

	t.Run("MissingAttribute_IsNonMatch", func(t *testing.T) {
		req := request()
		delete(req.Subject.Attributes, "clearance")
		assert.False(t, engine.AppliesToRequest(rule, req))
	})

	t.Run("OneConditionFails_GroupFails", func(t *testing.T) {
		req := request()
		req.Subject.Attributes["clearance"] = 1
		assert.False(t, engine.AppliesToRequest(rule, req))
	})

	t.Run("EmptyGroups_MatchEverything", func(t *testing.T) {
		open := model.PolicyRule{Actions: []string{"read"}}
		assert.True(t, engine.AppliesToRequest(open, request()))
	})
}

func TestRulesOverlap(t *testing.T) {
	t.Run("DisjointActions", func(t *testing.T) {
		r1 := subjectRule(t, "department", "engineering", "read")
		r2 := subjectRule(t, "department", "engineering", "delete")
		assert.False(t, engine.RulesOverlap(r1, r2))
	})

	t.Run("DisjointSubjects", func(t *testing.T) {
		r1 := subjectRule(t, "department", "engineering", "read")
		r2 := subjectRule(t, "department", "finance", "read")
		assert.False(t, engine.RulesOverlap(r1, r2))
	})

	t.Run("SharedActionAndSubject", func(t *testing.T) {
		r1 := subjectRule(t, "department", "engineering", "read", "write")
		r2 := subjectRule(t, "department", "engineering", "write")
		assert.True(t, engine.RulesOverlap(r1, r2))
	})

	t.Run("WildcardIntersectsAnyAction", func(t *testing.T) {
		r1 := subjectRule(t, "department", "engineering", model.ActionWildcard)
		r2 := subjectRule(t, "department", "engineering", "delete")
		assert.True(t, engine.RulesOverlap(r1, r2))
	})

	t.Run("EmptyGroup_OverlapsEverything", func(t *testing.T) {
		r1 := model.PolicyRule{Actions: []string{"read"}}
		r2 := subjectRule(t, "department", "finance", "read")
		assert.True(t, engine.RulesOverlap(r1, r2))
	})
}

func TestSpecificity(t *testing.T) {
	rule := model.PolicyRule{
		Subject: []model.AttributeCondition{
			mustCondition(t, "department", model.OpEquals, model.StringValue("engineering")),
		},
		Resource: []model.AttributeCondition{
			mustCondition(t, "classification", model.OpEquals, model.StringValue("internal")),
		},
		Environment: []model.AttributeCondition{
			mustCondition(t, "time", model.OpEquals, model.StringValue("09:00")),
		},
		Actions: []string{"read", "write"},
	}
	assert.Equal(t, 35, engine.Specificity(rule))

	wild := rule
	wild.Actions = []string{model.ActionWildcard}
	assert.Equal(t, 25, engine.Specificity(wild))
}
