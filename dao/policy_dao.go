// dao/policy_dao.go
package dao

import (
	"context"
	"encoding/json"
	"strings"
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

type PolicyDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewPolicyDAO(driver neo4j.Driver, auditService audit.Service) *PolicyDAO {
	dao := &PolicyDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint", zap.Error(err))
	}
	return dao
}

// EnsureUniqueConstraint ensures the unique constraint on the Policy ID
func (dao *PolicyDAO) EnsureUniqueConstraint(ctx context.Context) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_policy_id IF NOT EXISTS
        FOR (p:` + LabelPolicy + `) REQUIRE p.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on Policy ID", zap.Error(err))
		return err
	}
	return nil
}

// CreatePolicy creates a new policy node in Neo4j. Rules are stored
// as a JSON document on the node; the engine only ever consumes them
// through snapshot reads.
func (dao *PolicyDAO) CreatePolicy(ctx context.Context, policy model.Policy, userID string) (string, error) {
	start := time.Now()
	logger.Info("Creating new policy", zap.String("policyName", policy.Name))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if policy.ID == "" {
		policy.ID = uuid.New().String()
	}

	rulesJSON, err := json.Marshal(policy.Rules)
	if err != nil {
		logger.Error("Failed to marshal policy rules", zap.Error(err))
		return "", arbiter_errors.ErrInvalidPolicyData
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (p:` + LabelPolicy + ` {id: $id})
        ON CREATE SET
            p.name = $name,
            p.description = $description,
            p.effect = $effect,
            p.priority = $priority,
            p.status = $status,
            p.rules = $rules,
            p.applicableRoles = $applicableRoles,
            p.createdAt = $createdAt,
            p.updatedAt = $updatedAt
        RETURN p.id as id
        `
		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":              policy.ID,
			"name":            policy.Name,
			"description":     policy.Description,
			"effect":          policy.Effect,
			"priority":        policy.Priority,
			"status":          policy.Status,
			"rules":           string(rulesJSON),
			"applicableRoles": policy.ApplicableRoles,
			"createdAt":       now,
			"updatedAt":       now,
		}
		res, err := transaction.Run(query, params)
		if err != nil {
			return nil, err
		}
		if res.Next() {
			return res.Record().Values[0], nil
		}
		return nil, arbiter_errors.ErrDatabaseOperation
	})
	if err != nil {
		logger.Error("Failed to create policy",
			zap.Error(err),
			zap.String("policyName", policy.Name),
			zap.Duration("duration", time.Since(start)))
		return "", arbiter_errors.ErrDatabaseOperation
	}

	if err := dao.AuditService.LogMutation(ctx, userID, "policy.create", policy.ID); err != nil {
		logger.Warn("Failed to audit policy creation", zap.Error(err), zap.String("policyID", policy.ID))
	}

	logger.Info("Policy created successfully",
		zap.String("policyID", policy.ID),
		zap.Duration("duration", time.Since(start)))
	return result.(string), nil
}

// UpdatePolicy overwrites the mutable fields of an existing policy.
func (dao *PolicyDAO) UpdatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	rulesJSON, err := json.Marshal(policy.Rules)
	if err != nil {
		return nil, arbiter_errors.ErrInvalidPolicyData
	}

	_, err = session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:` + LabelPolicy + ` {id: $id})
        SET p.name = $name,
            p.description = $description,
            p.effect = $effect,
            p.priority = $priority,
            p.status = $status,
            p.rules = $rules,
            p.applicableRoles = $applicableRoles,
            p.updatedAt = $updatedAt
        RETURN p.id as id
        `
		params := map[string]interface{}{
			"id":              policy.ID,
			"name":            policy.Name,
			"description":     policy.Description,
			"effect":          policy.Effect,
			"priority":        policy.Priority,
			"status":          policy.Status,
			"rules":           string(rulesJSON),
			"applicableRoles": policy.ApplicableRoles,
			"updatedAt":       time.Now().Format(time.RFC3339),
		}
		res, err := transaction.Run(query, params)
		if err != nil {
			return nil, err
		}
		if !res.Next() {
			return nil, arbiter_errors.ErrPolicyNotFound
		}
		return nil, nil
	})
	if err != nil {
		if err == arbiter_errors.ErrPolicyNotFound {
			return nil, err
		}
		logger.Error("Failed to update policy",
			zap.Error(err),
			zap.String("policyID", policy.ID),
			zap.Duration("duration", time.Since(start)))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	if err := dao.AuditService.LogMutation(ctx, userID, "policy.update", policy.ID); err != nil {
		logger.Warn("Failed to audit policy update", zap.Error(err), zap.String("policyID", policy.ID))
	}

	return dao.GetPolicy(ctx, policy.ID)
}

// DeletePolicy removes the policy node.
func (dao *PolicyDAO) DeletePolicy(ctx context.Context, policyID string, userID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:` + LabelPolicy + ` {id: $id})
        DETACH DELETE p
        RETURN count(p) as deleted
        `
		res, err := transaction.Run(query, map[string]interface{}{"id": policyID})
		if err != nil {
			return nil, err
		}
		if res.Next() && res.Record().Values[0].(int64) == 0 {
			return nil, arbiter_errors.ErrPolicyNotFound
		}
		return nil, nil
	})
	if err != nil {
		if err == arbiter_errors.ErrPolicyNotFound {
			return err
		}
		logger.Error("Failed to delete policy", zap.Error(err), zap.String("policyID", policyID))
		return arbiter_errors.ErrDatabaseOperation
	}

	if err := dao.AuditService.LogMutation(ctx, userID, "policy.delete", policyID); err != nil {
		logger.Warn("Failed to audit policy deletion", zap.Error(err), zap.String("policyID", policyID))
	}
	return nil
}

// GetPolicy retrieves a single policy by id.
func (dao *PolicyDAO) GetPolicy(ctx context.Context, policyID string) (*model.Policy, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + LabelPolicy + ` {id: $id})
    RETURN p
    `
	result, err := session.Run(query, map[string]interface{}{"id": policyID})
	if err != nil {
		logger.Error("Failed to execute get policy query", zap.Error(err), zap.String("policyID", policyID))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		policy, err := mapNodeToPolicy(node)
		if err != nil {
			logger.Error("Failed to map policy node to struct", zap.Error(err), zap.String("policyID", policyID))
			return nil, arbiter_errors.ErrInternalServer
		}
		return policy, nil
	}

	logger.Warn("Policy not found", zap.String("policyID", policyID))
	return nil, arbiter_errors.ErrPolicyNotFound
}

// ListPolicies returns every stored policy, ordered by priority.
func (dao *PolicyDAO) ListPolicies(ctx context.Context) ([]model.Policy, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + LabelPolicy + `)
    RETURN p
    ORDER BY p.priority DESC
    `
	result, err := session.Run(query, nil)
	if err != nil {
		logger.Error("Failed to execute list policies query", zap.Error(err))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	var policies []model.Policy
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		policy, err := mapNodeToPolicy(node)
		if err != nil {
			logger.Error("Failed to map policy node to struct", zap.Error(err))
			return nil, arbiter_errors.ErrInternalServer
		}
		policies = append(policies, *policy)
	}
	return policies, nil
}

// SearchPolicies returns the policies matching the given criteria,
// highest priority first.
func (dao *PolicyDAO) SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]model.Policy, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	var queryBuilder strings.Builder
	queryBuilder.WriteString("MATCH (p:" + LabelPolicy + ") WHERE 1=1")

	params := make(map[string]interface{})

	if criteria.Name != "" {
		queryBuilder.WriteString(" AND p.name = $name")
		params["name"] = criteria.Name
	}
	if criteria.Effect != "" {
		queryBuilder.WriteString(" AND p.effect = $effect")
		params["effect"] = criteria.Effect
	}
	if criteria.Status != "" {
		queryBuilder.WriteString(" AND p.status = $status")
		params["status"] = criteria.Status
	}
	if criteria.MinPriority > 0 {
		queryBuilder.WriteString(" AND p.priority >= $minPriority")
		params["minPriority"] = criteria.MinPriority
	}
	if criteria.MaxPriority > 0 {
		queryBuilder.WriteString(" AND p.priority <= $maxPriority")
		params["maxPriority"] = criteria.MaxPriority
	}

	queryBuilder.WriteString(" RETURN p ORDER BY p.priority DESC")

	if criteria.Limit > 0 {
		queryBuilder.WriteString(" LIMIT $limit")
		params["limit"] = criteria.Limit
	}

	result, err := session.Run(queryBuilder.String(), params)
	if err != nil {
		logger.Error("Failed to execute search policies query",
			zap.Error(err),
			zap.Any("criteria", criteria),
			zap.Duration("duration", time.Since(start)))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	var policies []model.Policy
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		policy, err := mapNodeToPolicy(node)
		if err != nil {
			logger.Error("Failed to map policy node to struct", zap.Error(err))
			return nil, arbiter_errors.ErrInternalServer
		}
		policies = append(policies, *policy)
	}

	logger.Info("Policy search completed",
		zap.Int("count", len(policies)),
		zap.Duration("duration", time.Since(start)))
	return policies, nil
}

func mapNodeToPolicy(node neo4j.Node) (*model.Policy, error) {
	props := node.Props
	policy := &model.Policy{}

	policy.ID = props["id"].(string)
	policy.Name = props["name"].(string)
	if description, ok := props["description"]; ok {
		policy.Description = description.(string)
	}
	policy.Effect = props["effect"].(string)
	policy.Priority = int(props["priority"].(int64))
	policy.Status = props["status"].(string)

	if rulesJSON, ok := props["rules"].(string); ok && rulesJSON != "" {
		if err := json.Unmarshal([]byte(rulesJSON), &policy.Rules); err != nil {
			return nil, err
		}
	}
	if roles, ok := props["applicableRoles"].([]interface{}); ok {
		for _, r := range roles {
			policy.ApplicableRoles = append(policy.ApplicableRoles, r.(string))
		}
	}

	policy.CreatedAt, _ = helper_util.ParseTime(props["createdAt"].(string))
	policy.UpdatedAt, _ = helper_util.ParseTime(props["updatedAt"].(string))
	return policy, nil
}
