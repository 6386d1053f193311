// model/validation.go
package model

// Validation error and warning type tags.
const (
	ValidationMissingEntity    = "missing_entity"
	ValidationRedundant        = "redundant_assignment"
	ValidationRoleConflict     = "conflicting_roles"
	ValidationPermConflict     = "conflicting_permissions"
	ValidationCycle            = "role_hierarchy_cycle"
	ValidationDuplicateName    = "duplicate_name"
	ValidationPolicyConflict   = "policy_conflict"
	ValidationPriorityRange    = "priority_out_of_range"
	ValidationEmptyRules       = "empty_rules"
	ValidationHighRiskGrant    = "high_risk_permission"
	ValidationInvalidCondition = "invalid_condition"
)

type ValidationError struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Entities []string `json:"entities,omitempty"`
	Severity string   `json:"severity"` // "critical", "high", "medium" or "low"
}

type ValidationWarning struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Entities []string `json:"entities,omitempty"`
}

// ValidationResult is the outcome of a composite validation check.
// IsValid is false iff at least one error is present; warnings alone
// do not invalidate.
type ValidationResult struct {
	IsValid  bool                `json:"is_valid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// NewValidationResult returns an empty, passing result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{IsValid: true, Errors: []ValidationError{}, Warnings: []ValidationWarning{}}
}

// AddError records an error and marks the result invalid.
func (r *ValidationResult) AddError(errType, severity, message string, entities ...string) {
	r.Errors = append(r.Errors, ValidationError{
		Type:     errType,
		Message:  message,
		Entities: entities,
		Severity: severity,
	})
	r.IsValid = false
}

// AddWarning records a warning without invalidating the result.
func (r *ValidationResult) AddWarning(warnType, message string, entities ...string) {
	r.Warnings = append(r.Warnings, ValidationWarning{
		Type:     warnType,
		Message:  message,
		Entities: entities,
	})
}
