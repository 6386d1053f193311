// dao/permission_dao.go
package dao

import (
	"context"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/audit"
	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	logger "github.com/arbiterhq/arbiter/logging"
	"github.com/arbiterhq/arbiter/model"
)

type PermissionDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewPermissionDAO(driver neo4j.Driver, auditService audit.Service) *PermissionDAO {
	return &PermissionDAO{Driver: driver, AuditService: auditService}
}

func (dao *PermissionDAO) UpsertPermission(ctx context.Context, permission model.Permission, userID string) (string, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if permission.ID == "" {
		permission.ID = uuid.New().String()
	}

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (p:` + LabelPermission + ` {id: $id})
        SET p.name = $name,
            p.resource = $resource,
            p.risk = $risk
        RETURN p.id as id
        `
		params := map[string]interface{}{
			"id":       permission.ID,
			"name":     permission.Name,
			"resource": permission.Resource,
			"risk":     permission.Risk,
		}
		_, err := transaction.Run(query, params)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to upsert permission", zap.Error(err), zap.String("permissionName", permission.Name))
		return "", arbiter_errors.ErrDatabaseOperation
	}

	if err := dao.AuditService.LogMutation(ctx, userID, "permission.upsert", permission.ID); err != nil {
		logger.Warn("Failed to audit permission upsert", zap.Error(err), zap.String("permissionID", permission.ID))
	}
	return permission.ID, nil
}

func (dao *PermissionDAO) GetPermission(ctx context.Context, permissionID string) (*model.Permission, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + LabelPermission + ` {id: $id})
    RETURN p
    `
	result, err := session.Run(query, map[string]interface{}{"id": permissionID})
	if err != nil {
		logger.Error("Failed to execute get permission query", zap.Error(err), zap.String("permissionID", permissionID))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		permission := mapNodeToPermission(node)
		return &permission, nil
	}
	return nil, arbiter_errors.ErrPermissionNotFound
}

func (dao *PermissionDAO) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + LabelPermission + `)
    RETURN p
    ORDER BY p.name
    `
	result, err := session.Run(query, nil)
	if err != nil {
		logger.Error("Failed to execute list permissions query", zap.Error(err))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	var permissions []model.Permission
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		permissions = append(permissions, mapNodeToPermission(node))
	}
	return permissions, nil
}

func mapNodeToPermission(node neo4j.Node) model.Permission {
	props := node.Props
	permission := model.Permission{
		ID:   props["id"].(string),
		Name: props["name"].(string),
	}
	if resource, ok := props["resource"].(string); ok {
		permission.Resource = resource
	}
	if risk, ok := props["risk"].(string); ok {
		permission.Risk = risk
	}
	return permission
}
