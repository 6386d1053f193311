// pdp/engine/evaluator_test.go
package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/pdp/engine"
	pdp_model "github.com/arbiterhq/arbiter/pdp/model"
)

func engineeringPolicy(t *testing.T, id, effect string, priority int) model.Policy {
	t.Helper()
	return model.Policy{
		ID:       id,
		Name:     id,
		Effect:   effect,
		Priority: priority,
		Status:   model.StatusActive,
		Rules: []model.PolicyRule{
			subjectRule(t, "department", "engineering", "read"),
		},
	}
}

func engineeringRequest() *pdp_model.AccessRequest {
	return &pdp_model.AccessRequest{
		Subject: pdp_model.Subject{
			ID:         "u-1",
			Attributes: map[string]interface{}{"department": "engineering"},
		},
		Resource: pdp_model.Resource{ID: "doc-1", Attributes: map[string]interface{}{}},
		Action:   "read",
	}
}

func TestEvaluate(t *testing.T) {
	evaluator := engine.NewPolicyEvaluator()
	ctx := context.Background()

	t.Run("HigherPriorityDenyWins", func(t *testing.T) {
		policies := []model.Policy{
			engineeringPolicy(t, "allow-low", model.EffectAllow, 10),
			engineeringPolicy(t, "deny-high", model.EffectDeny, 20),
		}

		decision, err := evaluator.Evaluate(ctx, engineeringRequest(), policies)
		assert.NoError(t, err)
		assert.Equal(t, model.EffectDeny, decision.Decision)
		assert.ElementsMatch(t, []string{"allow-low", "deny-high"}, decision.AppliedPolicies)
		assert.Contains(t, decision.Explanation, "deny-high")
	})

	t.Run("HigherPriorityAllowWins", func(t *testing.T) {
		policies := []model.Policy{
			engineeringPolicy(t, "deny-low", model.EffectDeny, 10),
			engineeringPolicy(t, "allow-high", model.EffectAllow, 20),
		}

		decision, err := evaluator.Evaluate(ctx, engineeringRequest(), policies)
		assert.NoError(t, err)
		assert.Equal(t, model.EffectAllow, decision.Decision)
	})

	t.Run("EqualPriority_DenyWinsEitherOrder", func(t *testing.T) {
		allow := engineeringPolicy(t, "allow", model.EffectAllow, 10)
		deny := engineeringPolicy(t, "deny", model.EffectDeny, 10)

		for _, policies := range [][]model.Policy{{allow, deny}, {deny, allow}} {
			decision, err := evaluator.Evaluate(ctx, engineeringRequest(), policies)
			assert.NoError(t, err)
			assert.Equal(t, model.EffectDeny, decision.Decision)
		}
	})

	t.Run("NoMatch_DefaultDeny", func(t *testing.T) {
		policies := []model.Policy{
			engineeringPolicy(t, "allow", model.EffectAllow, 10),
		}
		request := engineeringRequest()
		request.Subject.Attributes["department"] = "finance"

		decision, err := evaluator.Evaluate(ctx, request, policies)
		assert.NoError(t, err)
		assert.Equal(t, model.EffectDeny, decision.Decision)
		assert.Empty(t, decision.AppliedPolicies)
		assert.Equal(t, "no matching active policy; default deny", decision.Explanation)
	})

	t.Run("EmptyPolicySet_DefaultDeny", func(t *testing.T) {
		decision, err := evaluator.Evaluate(ctx, engineeringRequest(), nil)
		assert.NoError(t, err)
		assert.Equal(t, model.EffectDeny, decision.Decision)
	})

	t.Run("InactivePoliciesIgnored", func(t *testing.T) {
		inactive := engineeringPolicy(t, "allow", model.EffectAllow, 10)
		inactive.Status = model.StatusInactive
		draft := engineeringPolicy(t, "draft-allow", model.EffectAllow, 20)
		draft.Status = model.StatusDraft

		decision, err := evaluator.Evaluate(ctx, engineeringRequest(), []model.Policy{inactive, draft})
		assert.NoError(t, err)
		assert.Equal(t, model.EffectDeny, decision.Decision)
		assert.Empty(t, decision.AppliedPolicies)
	})

	t.Run("MalformedRuleSkipped_PolicyStillEvaluates", func(t *testing.T) {
		policy := engineeringPolicy(t, "mixed", model.EffectAllow, 10)
		policy.Rules = append([]model.PolicyRule{{
			Subject: []model.AttributeCondition{{
				Attribute: "department",
				Operator:  "regex",
				Value:     model.StringValue(".*"),
			}},
			Actions: []string{"read"},
		}}, policy.Rules...)

		decision, err := evaluator.Evaluate(ctx, engineeringRequest(), []model.Policy{policy})
		assert.NoError(t, err)
		assert.Equal(t, model.EffectAllow, decision.Decision)
		assert.Equal(t, []string{"mixed"}, decision.AppliedPolicies)
	})

	t.Run("Deterministic_AcrossOrderings", func(t *testing.T) {
		policies := []model.Policy{
			engineeringPolicy(t, "a", model.EffectAllow, 5),
			engineeringPolicy(t, "b", model.EffectDeny, 15),
			engineeringPolicy(t, "c", model.EffectAllow, 15),
			engineeringPolicy(t, "d", model.EffectAllow, 1),
		}
		reversed := []model.Policy{policies[3], policies[2], policies[1], policies[0]}

		first, err := evaluator.Evaluate(ctx, engineeringRequest(), policies)
		assert.NoError(t, err)
		second, err := evaluator.Evaluate(ctx, engineeringRequest(), reversed)
		assert.NoError(t, err)

		assert.Equal(t, first.Decision, second.Decision)
		assert.Equal(t, model.EffectDeny, first.Decision)
		assert.ElementsMatch(t, first.AppliedPolicies, second.AppliedPolicies)
	})
}
