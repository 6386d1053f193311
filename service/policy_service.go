// service/policy_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/dao"
	"github.com/arbiterhq/arbiter/db"
	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	logger "github.com/arbiterhq/arbiter/logging"
	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/relationship"
	"github.com/arbiterhq/arbiter/util"
)

type IPolicyService interface {
	CreatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error)
	UpdatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error)
	DeletePolicy(ctx context.Context, policyID string, userID string) error
	GetPolicy(ctx context.Context, policyID string) (*model.Policy, error)
	ListPolicies(ctx context.Context) ([]model.Policy, error)
	SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]model.Policy, error)
}

// PolicyService handles business logic for policy operations. Every
// write is gated by field validation and by the relationship
// validator's policy-configuration check against the current snapshot.
type PolicyService struct {
	policyDAO       *dao.PolicyDAO
	directoryDAO    *dao.DirectoryDAO
	validationUtil  *util.ValidationUtil
	validator       *relationship.Validator
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

func NewPolicyService(
	policyDAO *dao.PolicyDAO,
	directoryDAO *dao.DirectoryDAO,
	validationUtil *util.ValidationUtil,
	validator *relationship.Validator,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) *PolicyService {
	service := &PolicyService{
		policyDAO:       policyDAO,
		directoryDAO:    directoryDAO,
		validationUtil:  validationUtil,
		validator:       validator,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	// Any policy change invalidates cached decisions.
	eventBus.Subscribe(util.EventPolicyCreated, service.handlePolicyChanged)
	eventBus.Subscribe(util.EventPolicyUpdated, service.handlePolicyChanged)
	eventBus.Subscribe(util.EventPolicyDeleted, service.handlePolicyChanged)

	return service
}

func (s *PolicyService) handlePolicyChanged(ctx context.Context, event util.Event) error {
	if err := db.InvalidateDecisions(ctx); err != nil {
		logger.Error("Failed to invalidate cached decisions", zap.Error(err), zap.String("event", event.Type))
		return err
	}
	return nil
}

func (s *PolicyService) CreatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error) {
	if err := s.validatePolicy(ctx, policy); err != nil {
		return nil, err
	}

	policyID, err := s.policyDAO.CreatePolicy(ctx, policy, userID)
	if err != nil {
		return nil, err
	}

	created, err := s.policyDAO.GetPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, util.EventPolicyCreated, *created)
	if err := s.notificationSvc.NotifyPolicyChange(ctx, "created", *created); err != nil {
		logger.Warn("Failed to send policy creation notification", zap.Error(err), zap.String("policyID", policyID))
	}
	return created, nil
}

func (s *PolicyService) UpdatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error) {
	if err := s.validatePolicy(ctx, policy); err != nil {
		return nil, err
	}

	updated, err := s.policyDAO.UpdatePolicy(ctx, policy, userID)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, util.EventPolicyUpdated, *updated)
	if err := s.notificationSvc.NotifyPolicyChange(ctx, "updated", *updated); err != nil {
		logger.Warn("Failed to send policy update notification", zap.Error(err), zap.String("policyID", policy.ID))
	}
	return updated, nil
}

func (s *PolicyService) DeletePolicy(ctx context.Context, policyID string, userID string) error {
	if err := s.policyDAO.DeletePolicy(ctx, policyID, userID); err != nil {
		return err
	}
	s.eventBus.Publish(ctx, util.EventPolicyDeleted, model.Policy{ID: policyID})
	return nil
}

func (s *PolicyService) GetPolicy(ctx context.Context, policyID string) (*model.Policy, error) {
	return s.policyDAO.GetPolicy(ctx, policyID)
}

func (s *PolicyService) ListPolicies(ctx context.Context) ([]model.Policy, error) {
	return s.policyDAO.ListPolicies(ctx)
}

func (s *PolicyService) SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]model.Policy, error) {
	if err := criteria.Validate(); err != nil {
		logger.Warn("Rejected policy search criteria", zap.Error(err))
		return nil, arbiter_errors.ErrInvalidSearchCriteria
	}
	return s.policyDAO.SearchPolicies(ctx, criteria)
}

// validatePolicy runs field validation, then the cross-policy
// configuration check. Configuration errors block the write;
// warnings are logged and let through.
func (s *PolicyService) validatePolicy(ctx context.Context, policy model.Policy) error {
	if err := s.validationUtil.ValidatePolicy(policy); err != nil {
		logger.Warn("Policy failed field validation", zap.Error(err), zap.String("policyName", policy.Name))
		return arbiter_errors.ErrInvalidPolicyData
	}

	snapshot, err := s.directoryDAO.Snapshot(ctx)
	if err != nil {
		return err
	}
	result := s.validator.ValidatePolicyConfiguration(policy, snapshot)
	for _, warning := range result.Warnings {
		logger.Warn("Policy configuration warning",
			zap.String("type", warning.Type),
			zap.String("message", warning.Message),
			zap.String("policyName", policy.Name))
	}
	if !result.IsValid {
		logger.Warn("Policy configuration rejected",
			zap.String("policyName", policy.Name),
			zap.Int("errors", len(result.Errors)))
		return arbiter_errors.ErrPolicyConflict
	}
	return nil
}
