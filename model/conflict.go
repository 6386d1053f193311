// model/conflict.go
package model

import "time"

// Conflict types emitted by the analysis passes.
const (
	ConflictEffect        = "effect_conflict"
	ConflictPriority      = "priority_overlap"
	ConflictContradiction = "rule_contradiction"
	ConflictScope         = "scope_ambiguity"
	ConflictTemporal      = "temporal_conflict"
	ConflictCondition     = "condition_overlap"
)

// Conflict severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Conflict is a detected inconsistency between two policies, or within
// one policy's rules. Derived data: recomputed on every analysis run,
// never persisted as authoritative state.
type Conflict struct {
	ID                  string         `json:"id"`
	Type                string         `json:"type"`
	Severity            string         `json:"severity"`
	InvolvedPolicies    []string       `json:"involved_policies"`
	ConflictingRules    []string       `json:"conflicting_rules,omitempty"`
	RiskScore           int            `json:"risk_score"` // 0..100
	AutoResolvable      bool           `json:"auto_resolvable"`
	Impact              ImpactAnalysis `json:"impact_analysis"`
	SuggestedResolution string         `json:"suggested_resolution"`
	DetectedAt          time.Time      `json:"detected_at"`
}

type ImpactAnalysis struct {
	AffectedUsers     int      `json:"affected_users"`
	AffectedRoles     int      `json:"affected_roles"`
	AffectedResources []string `json:"affected_resources"`
	SecurityRisk      string   `json:"security_risk"`   // "low", "medium" or "high"
	BusinessImpact    string   `json:"business_impact"` // "low", "medium" or "high"
}

// Overlap matrix entry types.
const (
	OverlapEffect     = "effect"
	OverlapPriority   = "priority"
	OverlapConditions = "conditions"
)

// OverlapRecord is one row of the pairwise policy comparison report.
// The overlap percentage is directional: it is measured against the
// first policy's condition count.
type OverlapRecord struct {
	PolicyA           string   `json:"policy_a"`
	PolicyB           string   `json:"policy_b"`
	OverlapPercentage float64  `json:"overlap_percentage"`
	OverlapTypes      []string `json:"overlap_types"`
	ConflictRisk      float64  `json:"conflict_risk"`
}

// PolicyMetrics summarizes analysis findings for one policy.
type PolicyMetrics struct {
	PolicyID      string  `json:"policy_id"`
	PolicyName    string  `json:"policy_name"`
	ConflictCount int     `json:"conflict_count"`
	MaxSeverity   string  `json:"max_severity,omitempty"`
	MeanRiskScore float64 `json:"mean_risk_score"`
}

// AggregateMetrics summarizes an entire analysis run.
type AggregateMetrics struct {
	TotalConflicts  int            `json:"total_conflicts"`
	BySeverity      map[string]int `json:"by_severity"`
	ByType          map[string]int `json:"by_type"`
	AutoResolvable  int            `json:"auto_resolvable"`
	MeanRiskScore   float64        `json:"mean_risk_score"`
	PoliciesScanned int            `json:"policies_scanned"`
}

// AnalysisReport is the full output of one analysis invocation.
// FailedPasses names detector passes that did not complete; their
// findings are absent rather than partial.
type AnalysisReport struct {
	Conflicts     []Conflict       `json:"conflicts"`
	OverlapMatrix []OverlapRecord  `json:"overlap_matrix"`
	PolicyMetrics []PolicyMetrics  `json:"per_policy_metrics"`
	Aggregate     AggregateMetrics `json:"aggregate_metrics"`
	FailedPasses  []string         `json:"failed_passes,omitempty"`
	GeneratedAt   time.Time        `json:"generated_at"`
}
