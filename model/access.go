// model/access.go
package model

import "time"

// Permission risk levels.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

type Role struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description,omitempty"`
	Permissions          []string  `json:"permissions"`
	InheritedPermissions []string  `json:"inherited_permissions,omitempty"`
	ParentRole           string    `json:"parent_role,omitempty"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type Permission struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Risk     string `json:"risk"` // "low", "medium", "high" or "critical"
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRole reports whether the user currently holds the role.
func (u User) HasRole(roleID string) bool {
	for _, r := range u.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// HasPermission reports whether the role directly or transitively
// carries the permission.
func (r Role) HasPermission(permissionID string) bool {
	for _, p := range r.Permissions {
		if p == permissionID {
			return true
		}
	}
	for _, p := range r.InheritedPermissions {
		if p == permissionID {
			return true
		}
	}
	return false
}

// Snapshot is a point-in-time, read-only view of the entity store.
// Analysis and validation never mutate it; callers supplying one are
// responsible for its consistency.
type Snapshot struct {
	Policies    []Policy     `json:"policies"`
	Roles       []Role       `json:"roles"`
	Permissions []Permission `json:"permissions"`
	Users       []User       `json:"users"`
}

// RolesByID indexes the snapshot's roles for lookup.
func (s Snapshot) RolesByID() map[string]Role {
	m := make(map[string]Role, len(s.Roles))
	for _, r := range s.Roles {
		m[r.ID] = r
	}
	return m
}

// PermissionsByID indexes the snapshot's permissions for lookup.
func (s Snapshot) PermissionsByID() map[string]Permission {
	m := make(map[string]Permission, len(s.Permissions))
	for _, p := range s.Permissions {
		m[p.ID] = p
	}
	return m
}

// UserByID returns the user with the given id, if present.
func (s Snapshot) UserByID(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// RoleByID returns the role with the given id, if present.
func (s Snapshot) RoleByID(id string) (Role, bool) {
	for _, r := range s.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

// ActivePolicies filters the snapshot down to active policies,
// preserving order.
func (s Snapshot) ActivePolicies() []Policy {
	active := make([]Policy, 0, len(s.Policies))
	for _, p := range s.Policies {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active
}
