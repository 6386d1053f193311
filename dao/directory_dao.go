// dao/directory_dao.go
package dao

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/arbiterhq/arbiter/model"
)

// DirectoryDAO aggregates the four entity DAOs and assembles the
// point-in-time snapshots the engine consumes. The snapshot is a copy:
// later store mutations never reach an in-flight evaluation or
// analysis.
type DirectoryDAO struct {
	Policies    *PolicyDAO
	Roles       *RoleDAO
	Permissions *PermissionDAO
	Users       *UserDAO
}

func NewDirectoryDAO(policies *PolicyDAO, roles *RoleDAO, permissions *PermissionDAO, users *UserDAO) *DirectoryDAO {
	return &DirectoryDAO{
		Policies:    policies,
		Roles:       roles,
		Permissions: permissions,
		Users:       users,
	}
}

// Snapshot reads all four entity sets, fanning the reads out in
// parallel.
func (dao *DirectoryDAO) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	snapshot := &model.Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		policies, err := dao.Policies.ListPolicies(gctx)
		snapshot.Policies = policies
		return err
	})
	g.Go(func() error {
		roles, err := dao.Roles.ListRoles(gctx)
		snapshot.Roles = roles
		return err
	})
	g.Go(func() error {
		permissions, err := dao.Permissions.ListPermissions(gctx)
		snapshot.Permissions = permissions
		return err
	})
	g.Go(func() error {
		users, err := dao.Users.ListUsers(gctx)
		snapshot.Users = users
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
