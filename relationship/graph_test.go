// relationship/graph_test.go
package relationship_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/relationship"
)

func roleMap(roles ...model.Role) map[string]model.Role {
	m := make(map[string]model.Role, len(roles))
	for _, r := range roles {
		m[r.ID] = r
	}
	return m
}

func TestHasCycle(t *testing.T) {
	t.Run("LinearChain", func(t *testing.T) {
		roles := roleMap(
			model.Role{ID: "a", ParentRole: "b"},
			model.Role{ID: "b", ParentRole: "c"},
			model.Role{ID: "c"},
		)
		assert.False(t, relationship.HasCycle("a", roles))
		assert.False(t, relationship.HasCycle("c", roles))
	})

	t.Run("ThreeRoleCycle", func(t *testing.T) {
		roles := roleMap(
			model.Role{ID: "a", ParentRole: "b"},
			model.Role{ID: "b", ParentRole: "c"},
			model.Role{ID: "c", ParentRole: "a"},
		)
		assert.True(t, relationship.HasCycle("a", roles))
		assert.True(t, relationship.HasCycle("b", roles))
		assert.True(t, relationship.HasCycle("c", roles))
	})

	t.Run("SelfParent", func(t *testing.T) {
		roles := roleMap(model.Role{ID: "a", ParentRole: "a"})
		assert.True(t, relationship.HasCycle("a", roles))
	})

	t.Run("DanglingParent", func(t *testing.T) {
		// Parent points at a role absent from the map; the chain just
		// ends there.
		roles := roleMap(model.Role{ID: "a", ParentRole: "ghost"})
		assert.False(t, relationship.HasCycle("a", roles))
	})

	t.Run("ChainIntoCycle", func(t *testing.T) {
		// d hangs off the b<->c cycle: following d's chain hits it.
		roles := roleMap(
			model.Role{ID: "b", ParentRole: "c"},
			model.Role{ID: "c", ParentRole: "b"},
			model.Role{ID: "d", ParentRole: "b"},
		)
		assert.True(t, relationship.HasCycle("d", roles))
	})
}

func TestRolesOnCycles(t *testing.T) {
	roles := roleMap(
		model.Role{ID: "a", ParentRole: "b"},
		model.Role{ID: "b", ParentRole: "a"},
		model.Role{ID: "clean"},
	)
	assert.ElementsMatch(t, []string{"a", "b"}, relationship.RolesOnCycles(roles))
}

func TestFindConflictingRoles(t *testing.T) {
	roles := roleMap(
		model.Role{ID: "r-admin", Name: "platform-admin"},
		model.Role{ID: "r-guest", Name: "guest-viewer"},
		model.Role{ID: "r-dev", Name: "developer"},
	)

	t.Run("PatternConflict", func(t *testing.T) {
		candidate := model.Role{ID: "r-admin", Name: "platform-admin"}
		conflicting := relationship.FindConflictingRoles(candidate, []string{"r-guest", "r-dev"}, roles)
		assert.Equal(t, []string{"r-guest"}, conflicting)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		candidate := model.Role{ID: "x", Name: "Global-ADMIN"}
		conflicting := relationship.FindConflictingRoles(candidate, []string{"r-guest"}, roles)
		assert.Equal(t, []string{"r-guest"}, conflicting)
	})

	t.Run("NoConflict", func(t *testing.T) {
		candidate := model.Role{ID: "x", Name: "release-manager"}
		assert.Empty(t, relationship.FindConflictingRoles(candidate, []string{"r-guest", "r-dev"}, roles))
	})

	t.Run("UnknownHeldRolesSkipped", func(t *testing.T) {
		candidate := model.Role{ID: "x", Name: "platform-admin"}
		assert.Empty(t, relationship.FindConflictingRoles(candidate, []string{"ghost"}, roles))
	})
}

func TestArePermissionsConflicting(t *testing.T) {
	t.Run("SameResource_ExclusiveNames", func(t *testing.T) {
		grant := model.Permission{ID: "p1", Name: "grant_access", Resource: "vault"}
		revoke := model.Permission{ID: "p2", Name: "revoke_access", Resource: "vault"}
		assert.True(t, relationship.ArePermissionsConflicting(grant, revoke))
		assert.True(t, relationship.ArePermissionsConflicting(revoke, grant))
	})

	t.Run("DifferentResources", func(t *testing.T) {
		grant := model.Permission{ID: "p1", Name: "grant_access", Resource: "vault"}
		revoke := model.Permission{ID: "p2", Name: "revoke_access", Resource: "ledger"}
		assert.False(t, relationship.ArePermissionsConflicting(grant, revoke))
	})

	t.Run("ReadOnlyVersusWrite", func(t *testing.T) {
		ro := model.Permission{ID: "p1", Name: "read_only_reports", Resource: "reports"}
		rw := model.Permission{ID: "p2", Name: "write_reports", Resource: "reports"}
		assert.True(t, relationship.ArePermissionsConflicting(ro, rw))
	})
}
