// relationship/graph.go
package relationship

import (
	"strings"

	"github.com/arbiterhq/arbiter/model"
)

// HasCycle reports whether following the role's parent chain ever
// revisits a role still on the traversal stack. Each role has at most
// one parent edge, so a healthy hierarchy is a forest; a back-edge is
// the only way to close a cycle. Visited and stack state is local to
// the call.
func HasCycle(roleID string, roles map[string]model.Role) bool {
	visited := make(map[string]bool)
	stack := make(map[string]bool)
	return visitRole(roleID, roles, visited, stack)
}

func visitRole(roleID string, roles map[string]model.Role, visited, stack map[string]bool) bool {
	if stack[roleID] {
		return true
	}
	if visited[roleID] {
		return false
	}
	visited[roleID] = true
	stack[roleID] = true

	if role, ok := roles[roleID]; ok && role.ParentRole != "" {
		if visitRole(role.ParentRole, roles, visited, stack) {
			return true
		}
	}

	stack[roleID] = false
	return false
}

// RolesOnCycles returns the ids of all roles sitting on a broken
// parent chain. Existing stored cycles are reported against every
// role on the cycle rather than aborting the analysis.
func RolesOnCycles(roles map[string]model.Role) []string {
	var onCycle []string
	for id := range roles {
		if HasCycle(id, roles) {
			onCycle = append(onCycle, id)
		}
	}
	return onCycle
}

// exclusiveRolePatterns pairs name substrings whose co-assignment is
// suspicious. A heuristic placeholder, not a sound conflict model:
// kept for behavioral compatibility until an administrator-declared
// exclusivity relation replaces it.
var exclusiveRolePatterns = [][2]string{
	{"admin", "guest"},
	{"admin", "readonly"},
	{"approver", "requester"},
	{"auditor", "operator"},
}

// FindConflictingRoles returns the ids of held roles whose names
// pattern-conflict with the candidate role.
func FindConflictingRoles(candidate model.Role, heldRoleIDs []string, roles map[string]model.Role) []string {
	var conflicting []string
	for _, heldID := range heldRoleIDs {
		held, ok := roles[heldID]
		if !ok {
			continue
		}
		if roleNamesConflict(candidate.Name, held.Name) {
			conflicting = append(conflicting, heldID)
		}
	}
	return conflicting
}

func roleNamesConflict(name1, name2 string) bool {
	for _, pair := range exclusiveRolePatterns {
		if containsFold(name1, pair[0]) && containsFold(name2, pair[1]) {
			return true
		}
		if containsFold(name1, pair[1]) && containsFold(name2, pair[0]) {
			return true
		}
	}
	return false
}

// exclusivePermissionPatterns pairs permission-name substrings that
// should not target the same resource.
var exclusivePermissionPatterns = [][2]string{
	{"grant", "revoke"},
	{"read_only", "write"},
	{"approve", "execute"},
}

// ArePermissionsConflicting applies the name-pattern heuristic to two
// permissions on the same resource.
func ArePermissionsConflicting(a, b model.Permission) bool {
	if a.Resource != b.Resource {
		return false
	}
	for _, pair := range exclusivePermissionPatterns {
		if containsFold(a.Name, pair[0]) && containsFold(b.Name, pair[1]) {
			return true
		}
		if containsFold(a.Name, pair[1]) && containsFold(b.Name, pair[0]) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
