// relationship/validator.go
package relationship

import (
	"fmt"
	"sort"

	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/pdp/engine"
)

// Validator runs the composite relationship checks that gate role,
// permission and policy mutations before they reach the store. It
// only reads the snapshot it is given.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateUserRoleAssignment checks whether a role can be assigned to
// a user: both entities must exist, the assignment must not be
// redundant, must not pair pattern-conflicting roles, and must not
// sit on a cyclic parent chain.
func (v *Validator) ValidateUserRoleAssignment(userID, roleID string, snapshot *model.Snapshot) *model.ValidationResult {
	result := model.NewValidationResult()
	rolesByID := snapshot.RolesByID()

	user, userFound := snapshot.UserByID(userID)
	if !userFound {
		result.AddError(model.ValidationMissingEntity, model.SeverityCritical,
			fmt.Sprintf("user %q does not exist", userID), userID)
	}
	role, roleFound := rolesByID[roleID]
	if !roleFound {
		result.AddError(model.ValidationMissingEntity, model.SeverityCritical,
			fmt.Sprintf("role %q does not exist", roleID), roleID)
	}
	if !userFound || !roleFound {
		return result
	}

	if user.HasRole(roleID) {
		result.AddWarning(model.ValidationRedundant,
			fmt.Sprintf("user %q already holds role %q", user.Name, role.Name), userID, roleID)
	}

	for _, conflictingID := range FindConflictingRoles(role, user.Roles, rolesByID) {
		result.AddError(model.ValidationRoleConflict, model.SeverityHigh,
			fmt.Sprintf("role %q conflicts with already-held role %q", role.Name, rolesByID[conflictingID].Name),
			roleID, conflictingID)
	}

	if HasCycle(roleID, rolesByID) {
		result.AddError(model.ValidationCycle, model.SeverityCritical,
			fmt.Sprintf("role %q sits on a cyclic parent chain; assignment refused", role.Name), roleID)
	}

	return result
}

// ValidateRoleGraph sweeps the stored role hierarchy for cycles.
// Every role sitting on a broken parent chain is reported as its own
// critical error, so an administrator sees the full membership of the
// cycle rather than just the role being touched.
func (v *Validator) ValidateRoleGraph(snapshot *model.Snapshot) *model.ValidationResult {
	result := model.NewValidationResult()
	rolesByID := snapshot.RolesByID()

	onCycle := RolesOnCycles(rolesByID)
	sort.Strings(onCycle)
	for _, roleID := range onCycle {
		result.AddError(model.ValidationCycle, model.SeverityCritical,
			fmt.Sprintf("role %q sits on a cyclic parent chain", rolesByID[roleID].Name), roleID)
	}
	return result
}

// ValidateRolePermissionAssignment checks whether a permission can be
// attached to a role: existence, duplicate grants, heuristic
// permission conflicts and high-risk grants.
func (v *Validator) ValidateRolePermissionAssignment(roleID, permissionID string, snapshot *model.Snapshot) *model.ValidationResult {
	result := model.NewValidationResult()
	permsByID := snapshot.PermissionsByID()

	role, roleFound := snapshot.RoleByID(roleID)
	if !roleFound {
		result.AddError(model.ValidationMissingEntity, model.SeverityCritical,
			fmt.Sprintf("role %q does not exist", roleID), roleID)
	}
	permission, permFound := permsByID[permissionID]
	if !permFound {
		result.AddError(model.ValidationMissingEntity, model.SeverityCritical,
			fmt.Sprintf("permission %q does not exist", permissionID), permissionID)
	}
	if !roleFound || !permFound {
		return result
	}

	if role.HasPermission(permissionID) {
		result.AddWarning(model.ValidationRedundant,
			fmt.Sprintf("role %q already carries permission %q", role.Name, permission.Name),
			roleID, permissionID)
	}

	for _, heldID := range role.Permissions {
		held, ok := permsByID[heldID]
		if !ok {
			continue
		}
		if ArePermissionsConflicting(permission, held) {
			result.AddError(model.ValidationPermConflict, model.SeverityHigh,
				fmt.Sprintf("permission %q conflicts with %q on resource %q",
					permission.Name, held.Name, held.Resource),
				permissionID, heldID)
		}
	}

	if permission.Risk == model.RiskHigh || permission.Risk == model.RiskCritical {
		result.AddWarning(model.ValidationHighRiskGrant,
			fmt.Sprintf("permission %q is rated %s risk; grant deliberately", permission.Name, permission.Risk),
			permissionID)
	}

	return result
}

// Priority bounds outside which a policy draws a warning.
const (
	priorityFloor   = 1
	priorityCeiling = 1000
)

// ValidatePolicyConfiguration checks a policy against the existing
// policy set before it is stored: name collisions, empty rule lists,
// priority range, condition well-formedness and rule overlaps with
// other active policies of opposite effect.
func (v *Validator) ValidatePolicyConfiguration(policy model.Policy, snapshot *model.Snapshot) *model.ValidationResult {
	result := model.NewValidationResult()

	for _, existing := range snapshot.Policies {
		if existing.ID == policy.ID {
			continue
		}
		if existing.Name == policy.Name {
			result.AddError(model.ValidationDuplicateName, model.SeverityMedium,
				fmt.Sprintf("policy name %q is already used by %s", policy.Name, existing.ID),
				policy.ID, existing.ID)
		}
	}

	if len(policy.Rules) == 0 {
		result.AddWarning(model.ValidationEmptyRules,
			fmt.Sprintf("policy %q has no rules and can never apply", policy.Name), policy.ID)
	}

	if policy.Priority < priorityFloor || policy.Priority > priorityCeiling {
		result.AddWarning(model.ValidationPriorityRange,
			fmt.Sprintf("priority %d is outside the expected %d..%d range",
				policy.Priority, priorityFloor, priorityCeiling),
			policy.ID)
	}

	rolesByID := snapshot.RolesByID()
	for _, roleID := range policy.ApplicableRoles {
		if _, ok := rolesByID[roleID]; !ok {
			result.AddWarning(model.ValidationMissingEntity,
				fmt.Sprintf("applicable role %q is not in the directory; the reference is ignored at evaluation time", roleID),
				policy.ID, roleID)
		}
	}

	for ri, rule := range policy.Rules {
		for _, cond := range rule.Conditions() {
			if _, err := model.NewCondition(cond.Attribute, cond.Operator, cond.Value); err != nil {
				result.AddError(model.ValidationInvalidCondition, model.SeverityMedium,
					fmt.Sprintf("rule %d: %v", ri, err), policy.ID)
			}
		}
	}

	for _, existing := range snapshot.ActivePolicies() {
		if existing.ID == policy.ID || existing.Effect == policy.Effect {
			continue
		}
		if policiesOverlap(policy, existing) {
			result.AddWarning(model.ValidationPolicyConflict,
				fmt.Sprintf("rules overlap with opposite-effect policy %q; this will surface as an effect conflict",
					existing.Name),
				policy.ID, existing.ID)
		}
	}

	return result
}

func policiesOverlap(p1, p2 model.Policy) bool {
	for _, r1 := range p1.Rules {
		for _, r2 := range p2.Rules {
			if engine.RulesOverlap(r1, r2) {
				return true
			}
		}
	}
	return false
}
