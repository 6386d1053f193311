// dao/role_dao.go
package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/audit"
	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	logger "github.com/arbiterhq/arbiter/logging"
	"github.com/arbiterhq/arbiter/model"
	helper_util "github.com/arbiterhq/arbiter/util/helper"
)

type RoleDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewRoleDAO(driver neo4j.Driver, auditService audit.Service) *RoleDAO {
	dao := &RoleDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint", zap.Error(err))
	}
	return dao
}

func (dao *RoleDAO) EnsureUniqueConstraint(ctx context.Context) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_role_id IF NOT EXISTS
        FOR (r:` + LabelRole + `) REQUIRE r.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on Role ID", zap.Error(err))
	}
	return err
}

// UpsertRole creates or updates a role node. The parent link is kept
// both as a property, read back into snapshots, and as a PARENT_ROLE
// relationship for graph queries.
func (dao *RoleDAO) UpsertRole(ctx context.Context, role model.Role, userID string) (string, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if role.ID == "" {
		role.ID = uuid.New().String()
	}

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (r:` + LabelRole + ` {id: $id})
        SET r.name = $name,
            r.description = $description,
            r.permissions = $permissions,
            r.inheritedPermissions = $inheritedPermissions,
            r.parentRole = $parentRole,
            r.status = $status,
            r.updatedAt = $updatedAt
        SET r.createdAt = coalesce(r.createdAt, $createdAt)
        WITH r
        OPTIONAL MATCH (r)-[old:` + RelParentRole + `]->()
        DELETE old
        `
		if role.ParentRole != "" {
			query += `
        WITH r
        MATCH (parent:` + LabelRole + ` {id: $parentRole})
        MERGE (r)-[:` + RelParentRole + `]->(parent)
        `
		}
		query += `
        RETURN r.id as id
        `
		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":                   role.ID,
			"name":                 role.Name,
			"description":          role.Description,
			"permissions":          role.Permissions,
			"inheritedPermissions": role.InheritedPermissions,
			"parentRole":           role.ParentRole,
			"status":               role.Status,
			"createdAt":            now,
			"updatedAt":            now,
		}
		_, err := transaction.Run(query, params)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to upsert role",
			zap.Error(err),
			zap.String("roleName", role.Name),
			zap.Duration("duration", time.Since(start)))
		return "", arbiter_errors.ErrDatabaseOperation
	}

	if err := dao.AuditService.LogMutation(ctx, userID, "role.upsert", role.ID); err != nil {
		logger.Warn("Failed to audit role upsert", zap.Error(err), zap.String("roleID", role.ID))
	}
	return role.ID, nil
}

func (dao *RoleDAO) DeleteRole(ctx context.Context, roleID string, userID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (r:` + LabelRole + ` {id: $id})
        DETACH DELETE r
        RETURN count(r) as deleted
        `
		res, err := transaction.Run(query, map[string]interface{}{"id": roleID})
		if err != nil {
			return nil, err
		}
		if res.Next() && res.Record().Values[0].(int64) == 0 {
			return nil, arbiter_errors.ErrRoleNotFound
		}
		return nil, nil
	})
	if err != nil {
		if err == arbiter_errors.ErrRoleNotFound {
			return err
		}
		logger.Error("Failed to delete role", zap.Error(err), zap.String("roleID", roleID))
		return arbiter_errors.ErrDatabaseOperation
	}

	if err := dao.AuditService.LogMutation(ctx, userID, "role.delete", roleID); err != nil {
		logger.Warn("Failed to audit role deletion", zap.Error(err), zap.String("roleID", roleID))
	}
	return nil
}

func (dao *RoleDAO) GetRole(ctx context.Context, roleID string) (*model.Role, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:` + LabelRole + ` {id: $id})
    RETURN r
    `
	result, err := session.Run(query, map[string]interface{}{"id": roleID})
	if err != nil {
		logger.Error("Failed to execute get role query", zap.Error(err), zap.String("roleID", roleID))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		role := mapNodeToRole(node)
		return &role, nil
	}
	return nil, arbiter_errors.ErrRoleNotFound
}

func (dao *RoleDAO) ListRoles(ctx context.Context) ([]model.Role, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:` + LabelRole + `)
    RETURN r
    ORDER BY r.name
    `
	result, err := session.Run(query, nil)
	if err != nil {
		logger.Error("Failed to execute list roles query", zap.Error(err))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	var roles []model.Role
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		roles = append(roles, mapNodeToRole(node))
	}
	return roles, nil
}

func mapNodeToRole(node neo4j.Node) model.Role {
	props := node.Props
	role := model.Role{}

	role.ID = props["id"].(string)
	role.Name = props["name"].(string)
	if description, ok := props["description"]; ok {
		role.Description = description.(string)
	}
	role.Permissions = toStringSlice(props["permissions"])
	role.InheritedPermissions = toStringSlice(props["inheritedPermissions"])
	if parent, ok := props["parentRole"].(string); ok {
		role.ParentRole = parent
	}
	if status, ok := props["status"].(string); ok {
		role.Status = status
	}
	role.CreatedAt, _ = helper_util.ParseTime(props["createdAt"].(string))
	role.UpdatedAt, _ = helper_util.ParseTime(props["updatedAt"].(string))
	return role
}

func toStringSlice(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
