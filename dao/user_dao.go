// dao/user_dao.go
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

type UserDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewUserDAO(driver neo4j.Driver, auditService audit.Service) *UserDAO {
	return &UserDAO{Driver: driver, AuditService: auditService}
}

func (dao *UserDAO) UpsertUser(ctx context.Context, user model.User, userID string) (string, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (u:` + LabelUser + ` {id: $id})
        SET u.name = $name,
            u.email = $email,
            u.roles = $roles,
            u.updatedAt = $updatedAt
        SET u.createdAt = coalesce(u.createdAt, $createdAt)
        WITH u
        OPTIONAL MATCH (u)-[old:` + RelHasRole + `]->()
        DELETE old
        WITH u
        UNWIND $roles AS roleID
        MATCH (r:` + LabelRole + ` {id: roleID})
        MERGE (u)-[:` + RelHasRole + `]->(r)
        RETURN u.id as id
        `
		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"roles":     user.Roles,
			"createdAt": now,
			"updatedAt": now,
		}
		_, err := transaction.Run(query, params)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to upsert user", zap.Error(err), zap.String("userName", user.Name))
		return "", arbiter_errors.ErrDatabaseOperation
	}

	if err := dao.AuditService.LogMutation(ctx, userID, "user.upsert", user.ID); err != nil {
		logger.Warn("Failed to audit user upsert", zap.Error(err), zap.String("userID", user.ID))
	}
	return user.ID, nil
}

// AssignRole appends a role to the user's role list. Callers are
// expected to run the user-role assignment validation first.
func (dao *UserDAO) AssignRole(ctx context.Context, userID, roleID, actorID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (u:` + LabelUser + ` {id: $userID})
        MATCH (r:` + LabelRole + ` {id: $roleID})
        MERGE (u)-[:` + RelHasRole + `]->(r)
        SET u.roles = [role IN u.roles WHERE role <> $roleID] + $roleID,
            u.updatedAt = $updatedAt
        RETURN u.id as id
        `
		params := map[string]interface{}{
			"userID":    userID,
			"roleID":    roleID,
			"updatedAt": time.Now().Format(time.RFC3339),
		}
		res, err := transaction.Run(query, params)
		if err != nil {
			return nil, err
		}
		if !res.Next() {
			return nil, arbiter_errors.ErrUserNotFound
		}
		return nil, nil
	})
	if err != nil {
		if err == arbiter_errors.ErrUserNotFound {
			return err
		}
		logger.Error("Failed to assign role",
			zap.Error(err),
			zap.String("userID", userID),
			zap.String("roleID", roleID))
		return arbiter_errors.ErrDatabaseOperation
	}

	if err := dao.AuditService.LogMutation(ctx, actorID, "user.assign_role", userID); err != nil {
		logger.Warn("Failed to audit role assignment", zap.Error(err), zap.String("userID", userID))
	}
	return nil
}

func (dao *UserDAO) GetUser(ctx context.Context, userID string) (*model.User, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + LabelUser + ` {id: $id})
    RETURN u
    `
	result, err := session.Run(query, map[string]interface{}{"id": userID})
	if err != nil {
		logger.Error("Failed to execute get user query", zap.Error(err), zap.String("userID", userID))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		user := mapNodeToUser(node)
		return &user, nil
	}
	return nil, arbiter_errors.ErrUserNotFound
}

func (dao *UserDAO) ListUsers(ctx context.Context) ([]model.User, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + LabelUser + `)
    RETURN u
    ORDER BY u.name
    `
	result, err := session.Run(query, nil)
	if err != nil {
		logger.Error("Failed to execute list users query", zap.Error(err))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	var users []model.User
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		users = append(users, mapNodeToUser(node))
	}
	return users, nil
}

func mapNodeToUser(node neo4j.Node) model.User {
	props := node.Props
	user := model.User{
		ID:   props["id"].(string),
		Name: props["name"].(string),
	}
	if email, ok := props["email"].(string); ok {
		user.Email = email
	}
	user.Roles = toStringSlice(props["roles"])
	user.CreatedAt, _ = helper_util.ParseTime(props["createdAt"].(string))
	user.UpdatedAt, _ = helper_util.ParseTime(props["updatedAt"].(string))
	return user
}
