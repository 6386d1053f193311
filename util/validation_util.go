// util/validation_util.go

package util

import (
	"fmt"

	"github.com/arbiterhq/arbiter/model"
)

// ValidationUtil performs field-level entity validation before any
// store write. Cross-entity checks (cycles, conflicts, overlaps) live
// in the relationship validator.
type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidatePolicy(policy model.Policy) error {
	if policy.Name == "" {
		return fmt.Errorf("policy name cannot be empty")
	}
	if policy.Effect != model.EffectAllow && policy.Effect != model.EffectDeny {
		return fmt.Errorf("policy effect must be either 'allow' or 'deny'")
	}
	switch policy.Status {
	case model.StatusActive, model.StatusInactive, model.StatusDraft:
	default:
		return fmt.Errorf("policy status must be 'active', 'inactive' or 'draft'")
	}
	if policy.Priority < 0 {
		return fmt.Errorf("policy priority cannot be negative")
	}
	for i, rule := range policy.Rules {
		if len(rule.Actions) == 0 {
			return fmt.Errorf("rule %d must have at least one action", i)
		}
		for _, cond := range rule.Conditions() {
			if cond.Attribute == "" {
				return fmt.Errorf("rule %d has a condition without an attribute", i)
			}
			if _, err := model.NewCondition(cond.Attribute, cond.Operator, cond.Value); err != nil {
				return fmt.Errorf("rule %d: %w", i, err)
			}
		}
	}
	return nil
}

func (v *ValidationUtil) ValidateRole(role model.Role) error {
	if role.ID == "" {
		return fmt.Errorf("role ID cannot be empty")
	}
	if role.Name == "" {
		return fmt.Errorf("role name cannot be empty")
	}
	if role.ParentRole == role.ID {
		return fmt.Errorf("role cannot be its own parent")
	}
	return nil
}

func (v *ValidationUtil) ValidateUser(user model.User) error {
	if user.ID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if user.Name == "" {
		return fmt.Errorf("user name cannot be empty")
	}
	return nil
}

// ValidatePermission
func (v *ValidationUtil) ValidatePermission(permission model.Permission) error {
	if permission.ID == "" {
		return fmt.Errorf("permission ID cannot be empty")
	}
	if permission.Name == "" {
		return fmt.Errorf("permission name cannot be empty")
	}
	switch permission.Risk {
	case model.RiskLow, model.RiskMedium, model.RiskHigh, model.RiskCritical:
	default:
		return fmt.Errorf("permission risk must be 'low', 'medium', 'high' or 'critical'")
	}
	return nil
}
