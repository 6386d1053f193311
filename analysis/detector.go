// analysis/detector.go
package analysis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	logger "github.com/arbiterhq/arbiter/logging"
	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/pdp/engine"
)

// Pass names, reported when a pass fails to complete.
const (
	PassEffectConflicts    = "effect_conflicts"
	PassPriorityOverlaps   = "priority_overlaps"
	PassRuleContradictions = "rule_contradictions"
	PassScopeAmbiguities   = "scope_ambiguities"
	PassTemporalConflicts  = "temporal_conflicts"
	PassConditionOverlaps  = "condition_overlaps"
)

// contradictoryActions pairs actions that should not be granted by
// rules targeting the same resource within one policy.
var contradictoryActions = [][2]string{
	{"read", "delete"},
	{"write", "delete"},
	{"approve", "reject"},
	{"grant", "revoke"},
}

// Detector runs the six conflict-detection passes over a policy
// snapshot. The passes are mutually independent: each only reads the
// snapshot and emits its own conflicts, so they are fanned out in
// parallel and joined before aggregation. A pass that fails is
// isolated; the remaining five still report.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// DetectConflicts runs every pass and concatenates their findings in
// pass order. The returned names list the passes that did not
// complete. An empty policy snapshot is a precondition violation, not
// an analysis finding.
func (d *Detector) DetectConflicts(ctx context.Context, snapshot *model.Snapshot) ([]model.Conflict, []string, error) {
	if snapshot == nil {
		return nil, nil, arbiter_errors.ErrNilSnapshot
	}
	if len(snapshot.Policies) == 0 {
		return nil, nil, arbiter_errors.ErrEmptyPolicySnapshot
	}

	passes := []struct {
		name string
		run  func(*model.Snapshot) []model.Conflict
	}{
		{PassEffectConflicts, d.detectEffectConflicts},
		{PassPriorityOverlaps, d.detectPriorityOverlaps},
		{PassRuleContradictions, d.detectRuleContradictions},
		{PassScopeAmbiguities, d.detectScopeAmbiguities},
		{PassTemporalConflicts, d.detectTemporalConflicts},
		{PassConditionOverlaps, d.detectConditionOverlaps},
	}

	results := make([][]model.Conflict, len(passes))
	failed := make([]bool, len(passes))

	g, _ := errgroup.WithContext(ctx)
	for i, pass := range passes {
		i, pass := i, pass
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					failed[i] = true
					logger.Error("Conflict detection pass failed",
						zap.String("pass", pass.name),
						zap.Any("panic", r))
				}
			}()
			results[i] = pass.run(snapshot)
			return nil
		})
	}
	// Pass errors are swallowed by the per-pass recover; Wait is a
	// join barrier only.
	_ = g.Wait()

	var conflicts []model.Conflict
	var failedPasses []string
	for i, pass := range passes {
		if failed[i] {
			failedPasses = append(failedPasses, pass.name)
			continue
		}
		conflicts = append(conflicts, results[i]...)
	}
	return conflicts, failedPasses, nil
}

// detectEffectConflicts finds pairs of active policies with opposite
// effects whose rules could apply to the same request.
func (d *Detector) detectEffectConflicts(snapshot *model.Snapshot) []model.Conflict {
	active := snapshot.ActivePolicies()
	var conflicts []model.Conflict

	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			p1, p2 := active[i], active[j]
			if p1.Effect == p2.Effect {
				continue
			}

			var overlapping []string
			for ri, r1 := range p1.Rules {
				for rj, r2 := range p2.Rules {
					if engine.RulesOverlap(r1, r2) {
						overlapping = append(overlapping,
							fmt.Sprintf("%s#%d|%s#%d", p1.ID, ri, p2.ID, rj))
					}
				}
			}
			if len(overlapping) == 0 {
				continue
			}

			impact := AnalyzeImpact(p1, p2, snapshot.Roles, snapshot.Users)
			score := effectConflictRiskScore(p1, p2, impact, len(overlapping))
			autoResolvable := p1.Priority != p2.Priority

			resolution := fmt.Sprintf(
				"Narrow the overlapping rules or separate the priorities of %q and %q so only one applies per request",
				p1.Name, p2.Name)
			if autoResolvable {
				resolution = fmt.Sprintf(
					"Priorities differ; policy %q wins where both apply. Confirm the higher priority carries the intended effect",
					higherPriority(p1, p2).Name)
			}

			conflicts = append(conflicts, model.Conflict{
				ID:                  uuid.New().String(),
				Type:                model.ConflictEffect,
				Severity:            SeverityOf(score, impact),
				InvolvedPolicies:    []string{p1.ID, p2.ID},
				ConflictingRules:    overlapping,
				RiskScore:           score,
				AutoResolvable:      autoResolvable,
				Impact:              impact,
				SuggestedResolution: resolution,
				DetectedAt:          time.Now(),
			})
		}
	}
	return conflicts
}

func effectConflictRiskScore(p1, p2 model.Policy, impact model.ImpactAnalysis, overlappingRules int) int {
	score := 40
	delta := p1.Priority - p2.Priority
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta == 0:
		score += 30
	case delta <= 10:
		score += 15
	}
	score += 2 * impact.AffectedUsers
	score += 5 * impact.AffectedRoles
	switch impact.SecurityRisk {
	case model.RiskHigh:
		score += 20
	case model.RiskMedium:
		score += 10
	}
	score += 5 * overlappingRules
	if score > 100 {
		score = 100
	}
	return score
}

func higherPriority(p1, p2 model.Policy) model.Policy {
	if p1.Priority >= p2.Priority {
		return p1
	}
	return p2
}

// detectPriorityOverlaps finds groups of active policies sharing one
// exact priority while mixing allow and deny effects.
func (d *Detector) detectPriorityOverlaps(snapshot *model.Snapshot) []model.Conflict {
	active := snapshot.ActivePolicies()
	groups := make(map[int][]model.Policy)
	var order []int
	for _, p := range active {
		if _, seen := groups[p.Priority]; !seen {
			order = append(order, p.Priority)
		}
		groups[p.Priority] = append(groups[p.Priority], p)
	}

	var conflicts []model.Conflict
	for _, priority := range order {
		group := groups[priority]
		if len(group) < 2 || !mixesEffects(group) {
			continue
		}

		score := 70 + 5*len(group)
		if score > 100 {
			score = 100
		}
		ids := make([]string, len(group))
		for i, p := range group {
			ids[i] = p.ID
		}

		conflicts = append(conflicts, model.Conflict{
			ID:               uuid.New().String(),
			Type:             model.ConflictPriority,
			Severity:         model.SeverityHigh,
			InvolvedPolicies: ids,
			RiskScore:        score,
			AutoResolvable:   true,
			Impact:           groupImpact(group, snapshot),
			SuggestedResolution: fmt.Sprintf(
				"Assign distinct priorities to the %d policies currently sharing priority %d",
				len(group), priority),
			DetectedAt: time.Now(),
		})
	}
	return conflicts
}

func mixesEffects(group []model.Policy) bool {
	hasAllow, hasDeny := false, false
	for _, p := range group {
		switch p.Effect {
		case model.EffectAllow:
			hasAllow = true
		case model.EffectDeny:
			hasDeny = true
		}
	}
	return hasAllow && hasDeny
}

// groupImpact folds pairwise impact over a priority group; the widest
// blast radius wins.
func groupImpact(group []model.Policy, snapshot *model.Snapshot) model.ImpactAnalysis {
	var widest model.ImpactAnalysis
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			impact := AnalyzeImpact(group[i], group[j], snapshot.Roles, snapshot.Users)
			if impact.AffectedUsers >= widest.AffectedUsers {
				widest = impact
			}
		}
	}
	return widest
}

// detectRuleContradictions finds contradictory action pairs between
// rules of the same policy that target the same resource value.
func (d *Detector) detectRuleContradictions(snapshot *model.Snapshot) []model.Conflict {
	var conflicts []model.Conflict
	for _, policy := range snapshot.ActivePolicies() {
		for i := 0; i < len(policy.Rules); i++ {
			for j := i + 1; j < len(policy.Rules); j++ {
				r1, r2 := policy.Rules[i], policy.Rules[j]
				if !shareResourceReference(r1, r2) {
					continue
				}
				pair, found := contradictoryPair(r1.Actions, r2.Actions)
				if !found {
					continue
				}

				conflicts = append(conflicts, model.Conflict{
					ID:               uuid.New().String(),
					Type:             model.ConflictContradiction,
					Severity:         model.SeverityMedium,
					InvolvedPolicies: []string{policy.ID},
					ConflictingRules: []string{
						fmt.Sprintf("%s#%d", policy.ID, i),
						fmt.Sprintf("%s#%d", policy.ID, j),
					},
					RiskScore:      45,
					AutoResolvable: false,
					SuggestedResolution: fmt.Sprintf(
						"Rules %d and %d of policy %q grant %q and %q on the same resource; review and split them",
						i, j, policy.Name, pair[0], pair[1]),
					DetectedAt: time.Now(),
				})
			}
		}
	}
	return conflicts
}

// shareResourceReference reports whether two rules constrain the same
// resource attribute to the same value.
func shareResourceReference(r1, r2 model.PolicyRule) bool {
	for _, c1 := range r1.Resource {
		for _, c2 := range r2.Resource {
			if c1.Attribute == c2.Attribute && c1.Value.Equal(c2.Value) {
				return true
			}
		}
	}
	return false
}

func contradictoryPair(actions1, actions2 []string) ([2]string, bool) {
	for _, pair := range contradictoryActions {
		if containsAction(actions1, pair[0]) && containsAction(actions2, pair[1]) {
			return pair, true
		}
		if containsAction(actions1, pair[1]) && containsAction(actions2, pair[0]) {
			return [2]string{pair[1], pair[0]}, true
		}
	}
	return [2]string{}, false
}

func containsAction(actions []string, action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// detectScopeAmbiguities flags policies whose resource values collide
// with identifiers already granted through a declared role's
// permission list, leaving two paths to the same resource.
func (d *Detector) detectScopeAmbiguities(snapshot *model.Snapshot) []model.Conflict {
	rolesByID := snapshot.RolesByID()
	var conflicts []model.Conflict

	for _, policy := range snapshot.ActivePolicies() {
		values := resourceValues(policy)
		for _, roleID := range policy.ApplicableRoles {
			role, ok := rolesByID[roleID]
			if !ok {
				logger.Warn("Policy references a role absent from the snapshot",
					zap.String("policyID", policy.ID),
					zap.String("roleID", roleID))
				continue
			}
			for value := range values {
				if !stringInSlice(role.Permissions, value) {
					continue
				}
				conflicts = append(conflicts, model.Conflict{
					ID:               uuid.New().String(),
					Type:             model.ConflictScope,
					Severity:         model.SeverityMedium,
					InvolvedPolicies: []string{policy.ID},
					RiskScore:        50,
					AutoResolvable:   false,
					Impact: model.ImpactAnalysis{
						AffectedRoles:     1,
						AffectedResources: []string{value},
						SecurityRisk:      model.RiskLow,
						BusinessImpact:    model.RiskLow,
					},
					SuggestedResolution: fmt.Sprintf(
						"Resource %q is reachable both through policy %q and through role %q permissions; keep a single grant path",
						value, policy.Name, role.Name),
					DetectedAt: time.Now(),
				})
			}
		}
	}
	return conflicts
}

// Attributes treated as time-of-day windows by the temporal pass.
var timeWindowAttributes = map[string]struct{}{
	"time":        {},
	"time_of_day": {},
	"access_time": {},
}

// detectTemporalConflicts finds overlapping time-of-day windows among
// a single rule's environment conditions.
func (d *Detector) detectTemporalConflicts(snapshot *model.Snapshot) []model.Conflict {
	var conflicts []model.Conflict
	for _, policy := range snapshot.ActivePolicies() {
		for ri, rule := range policy.Rules {
			windows := timeWindows(rule.Environment)
			for i := 0; i < len(windows); i++ {
				for j := i + 1; j < len(windows); j++ {
					if !windows[i].overlaps(windows[j]) {
						continue
					}
					conflicts = append(conflicts, model.Conflict{
						ID:               uuid.New().String(),
						Type:             model.ConflictTemporal,
						Severity:         model.SeverityLow,
						InvolvedPolicies: []string{policy.ID},
						ConflictingRules: []string{fmt.Sprintf("%s#%d", policy.ID, ri)},
						RiskScore:        25,
						AutoResolvable:   true,
						SuggestedResolution: fmt.Sprintf(
							"Merge the overlapping time windows %s and %s in policy %q",
							windows[i].raw, windows[j].raw, policy.Name),
						DetectedAt: time.Now(),
					})
				}
			}
		}
	}
	return conflicts
}

type timeWindow struct {
	start, end int // minutes since midnight
	raw        string
}

func (w timeWindow) overlaps(other timeWindow) bool {
	return w.start < other.end && other.start < w.end
}

func timeWindows(conditions []model.AttributeCondition) []timeWindow {
	var windows []timeWindow
	for _, cond := range conditions {
		if _, ok := timeWindowAttributes[cond.Attribute]; !ok {
			continue
		}
		if cond.Value.Kind != model.ValueString {
			continue
		}
		if w, ok := parseTimeWindow(cond.Value.Str); ok {
			windows = append(windows, w)
		}
	}
	return windows
}

// parseTimeWindow parses "HH:MM-HH:MM" into a window. Malformed
// values are skipped, matching the engine's treat-as-inapplicable
// stance on bad condition data.
func parseTimeWindow(s string) (timeWindow, bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return timeWindow{}, false
	}
	start, ok1 := parseClock(strings.TrimSpace(parts[0]))
	end, ok2 := parseClock(strings.TrimSpace(parts[1]))
	if !ok1 || !ok2 {
		return timeWindow{}, false
	}
	return timeWindow{start: start, end: end, raw: s}, true
}

func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// conditionOverlapThreshold is the percentage above which the overlap
// pass emits a conflict.
const conditionOverlapThreshold = 70.0

// detectConditionOverlaps flags active policy pairs whose condition
// sets are mostly identical.
func (d *Detector) detectConditionOverlaps(snapshot *model.Snapshot) []model.Conflict {
	active := snapshot.ActivePolicies()
	var conflicts []model.Conflict

	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			p1, p2 := active[i], active[j]
			pct := ConditionOverlapPercentage(p1, p2)
			if pct <= conditionOverlapThreshold {
				continue
			}
			score := int(math.Round(pct * 0.6))
			conflicts = append(conflicts, model.Conflict{
				ID:               uuid.New().String(),
				Type:             model.ConflictCondition,
				Severity:         model.SeverityLow,
				InvolvedPolicies: []string{p1.ID, p2.ID},
				RiskScore:        score,
				AutoResolvable:   true,
				Impact:           AnalyzeImpact(p1, p2, snapshot.Roles, snapshot.Users),
				SuggestedResolution: fmt.Sprintf(
					"Policies %q and %q share %.0f%% of their conditions; consider consolidating them",
					p1.Name, p2.Name, pct),
				DetectedAt: time.Now(),
			})
		}
	}
	return conflicts
}

// ConditionOverlapPercentage measures how much of the first policy's
// condition set reappears verbatim in the second. The denominator is
// the first policy's condition count, so the metric is directional:
// overlap(A, B) need not equal overlap(B, A).
func ConditionOverlapPercentage(policy1, policy2 model.Policy) float64 {
	total := policy1.ConditionCount()
	if total == 0 {
		return 0
	}
	matching := 0
	for _, r1 := range policy1.Rules {
		for _, r2 := range policy2.Rules {
			r2conds := r2.Conditions()
			for _, c1 := range r1.Conditions() {
				if hasIdenticalCondition(r2conds, c1) {
					matching++
				}
			}
		}
	}
	pct := float64(matching) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func hasIdenticalCondition(conditions []model.AttributeCondition, c model.AttributeCondition) bool {
	for _, other := range conditions {
		if other.Attribute == c.Attribute && other.Operator == c.Operator && other.Value.Equal(c.Value) {
			return true
		}
	}
	return false
}

func stringInSlice(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
