// pdp/engine/evaluator.go
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	logger "github.com/arbiterhq/arbiter/logging"
	"github.com/arbiterhq/arbiter/model"
	pdp_model "github.com/arbiterhq/arbiter/pdp/model"
)

// PolicyEvaluator is the policy decision point. It is stateless and
// safe for concurrent use; every call evaluates one request against
// the policy snapshot it is handed.
type PolicyEvaluator struct{}

func NewPolicyEvaluator() *PolicyEvaluator {
	return &PolicyEvaluator{}
}

// Evaluate resolves an access request to an allow/deny decision.
//
// Only active policies with at least one applicable rule participate.
// Among the matches the highest priority wins; at equal top priority
// deny wins over allow, so repeated evaluation of the same request
// against the same snapshot is deterministic regardless of policy
// order. No match means deny.
func (pe *PolicyEvaluator) Evaluate(ctx context.Context, request *pdp_model.AccessRequest, policies []model.Policy) (*pdp_model.Decision, error) {
	start := time.Now()

	var winner *pdp_model.PolicyEvaluationResult
	applied := []string{}

	for i := range policies {
		result := pe.evaluatePolicy(request, &policies[i])
		if !result.Matched {
			continue
		}
		applied = append(applied, result.PolicyID)
		if winner == nil || result.Priority > winner.Priority ||
			(result.Priority == winner.Priority && result.Effect == model.EffectDeny && winner.Effect == model.EffectAllow) {
			r := result
			winner = &r
		}
	}

	decision := &pdp_model.Decision{
		Decision:         model.EffectDeny,
		AppliedPolicies:  applied,
		Explanation:      "no matching active policy; default deny",
		EvaluationTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
	}
	if winner != nil {
		decision.Decision = winner.Effect
		decision.Explanation = fmt.Sprintf("effect %q from policy %s (priority %d)", winner.Effect, winner.PolicyID, winner.Priority)
	}

	logger.Debug("Access request evaluated",
		zap.String("subject", request.Subject.ID),
		zap.String("resource", request.Resource.ID),
		zap.String("action", request.Action),
		zap.String("decision", decision.Decision),
		zap.Int("matched", len(applied)))

	return decision, nil
}

func (pe *PolicyEvaluator) evaluatePolicy(request *pdp_model.AccessRequest, policy *model.Policy) pdp_model.PolicyEvaluationResult {
	result := pdp_model.PolicyEvaluationResult{
		PolicyID: policy.ID,
		Effect:   policy.Effect,
		Priority: policy.Priority,
	}

	if !policy.IsActive() {
		result.Reason = "policy not active"
		return result
	}

	for _, rule := range policy.Rules {
		if err := checkRuleOperators(rule); err != nil {
			// Malformed rules degrade to non-match rather than
			// failing the whole evaluation.
			logger.Warn("Skipping malformed rule",
				zap.String("policyID", policy.ID),
				zap.Error(err))
			continue
		}
		if AppliesToRequest(rule, request) {
			result.Matched = true
			result.Reason = "rule matched"
			return result
		}
	}

	result.Reason = "no rule matched"
	return result
}

var knownOperators = map[string]struct{}{
	model.OpEquals:      {},
	model.OpNotEquals:   {},
	model.OpContains:    {},
	model.OpIn:          {},
	model.OpNotIn:       {},
	model.OpGreaterThan: {},
	model.OpLessThan:    {},
}

func checkRuleOperators(rule model.PolicyRule) error {
	for _, cond := range rule.Conditions() {
		if _, ok := knownOperators[cond.Operator]; !ok {
			return fmt.Errorf("unknown operator %q on attribute %q", cond.Operator, cond.Attribute)
		}
	}
	return nil
}
