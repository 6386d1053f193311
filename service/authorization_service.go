// service/authorization_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/audit"
	"github.com/arbiterhq/arbiter/dao"
	"github.com/arbiterhq/arbiter/db"
	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	logger "github.com/arbiterhq/arbiter/logging"
	"github.com/arbiterhq/arbiter/pdp/engine"
	pdp_model "github.com/arbiterhq/arbiter/pdp/model"
)

type IAuthorizationService interface {
	Evaluate(ctx context.Context, request *pdp_model.AccessRequest) (*pdp_model.Decision, error)
}

// AuthorizationService is the decision point for access requests.
// Decisions are cached in Redis keyed by subject, resource and action;
// the cache is invalidated whenever a policy changes.
type AuthorizationService struct {
	policyDAO    *dao.PolicyDAO
	evaluator    *engine.PolicyEvaluator
	auditService audit.Service
}

func NewAuthorizationService(policyDAO *dao.PolicyDAO, auditService audit.Service) *AuthorizationService {
	return &AuthorizationService{
		policyDAO:    policyDAO,
		evaluator:    engine.NewPolicyEvaluator(),
		auditService: auditService,
	}
}

func (s *AuthorizationService) Evaluate(ctx context.Context, request *pdp_model.AccessRequest) (*pdp_model.Decision, error) {
	if request == nil || request.Subject.ID == "" || request.Action == "" {
		return nil, arbiter_errors.ErrInvalidRequest
	}

	cacheKey := db.DecisionCacheKey(request.Subject.ID, request.Resource.ID, request.Action)
	if cached, err := db.GetCachedDecision(ctx, cacheKey); err == nil && cached != nil {
		logger.Debug("Decision cache hit", zap.String("key", cacheKey))
		return cached, nil
	}

	policies, err := s.policyDAO.ListPolicies(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.evaluator.Evaluate(ctx, request, policies)
	if err != nil {
		return nil, err
	}

	if err := db.CacheDecision(ctx, cacheKey, decision); err != nil {
		logger.Warn("Failed to cache decision", zap.Error(err), zap.String("key", cacheKey))
	}
	if err := s.auditService.LogDecision(ctx, request, decision); err != nil {
		logger.Warn("Failed to audit decision", zap.Error(err), zap.String("subject", request.Subject.ID))
	}

	logger.Info("Access request evaluated",
		zap.String("subject", request.Subject.ID),
		zap.String("resource", request.Resource.ID),
		zap.String("action", request.Action),
		zap.String("decision", decision.Decision))
	return decision, nil
}
