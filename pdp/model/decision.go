package model

// Decision is the outcome of evaluating one access request. The
// default is deny: a request matching no active policy is refused.
type Decision struct {
	Decision         string   `json:"decision"` // "allow" or "deny"
	AppliedPolicies  []string `json:"applied_policies"`
	Explanation      string   `json:"explanation,omitempty"`
	EvaluationTimeMs float64  `json:"evaluation_time_ms"`
}

// PolicyEvaluationResult records how a single policy fared against a
// request, kept for explanation output.
type PolicyEvaluationResult struct {
	PolicyID string
	Effect   string
	Matched  bool
	Reason   string
	Priority int
}
