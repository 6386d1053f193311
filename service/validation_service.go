// service/validation_service.go
package service

import (
	"context"

	"github.com/arbiterhq/arbiter/dao"
	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/relationship"
)

type IValidationService interface {
	ValidateUserRole(ctx context.Context, userID, roleID string) (*model.ValidationResult, error)
	ValidateRolePermission(ctx context.Context, roleID, permissionID string) (*model.ValidationResult, error)
	ValidatePolicy(ctx context.Context, policy model.Policy) (*model.ValidationResult, error)
	ValidateRoleGraph(ctx context.Context) (*model.ValidationResult, error)
}

// ValidationService exposes the composite relationship checks as
// dry-run validations. It takes a fresh snapshot per call so results
// reflect the current directory state.
type ValidationService struct {
	directoryDAO *dao.DirectoryDAO
	validator    *relationship.Validator
}

func NewValidationService(directoryDAO *dao.DirectoryDAO, validator *relationship.Validator) *ValidationService {
	return &ValidationService{
		directoryDAO: directoryDAO,
		validator:    validator,
	}
}

func (s *ValidationService) ValidateUserRole(ctx context.Context, userID, roleID string) (*model.ValidationResult, error) {
	snapshot, err := s.directoryDAO.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.validator.ValidateUserRoleAssignment(userID, roleID, snapshot), nil
}

func (s *ValidationService) ValidateRolePermission(ctx context.Context, roleID, permissionID string) (*model.ValidationResult, error) {
	snapshot, err := s.directoryDAO.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.validator.ValidateRolePermissionAssignment(roleID, permissionID, snapshot), nil
}

func (s *ValidationService) ValidatePolicy(ctx context.Context, policy model.Policy) (*model.ValidationResult, error) {
	snapshot, err := s.directoryDAO.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.validator.ValidatePolicyConfiguration(policy, snapshot), nil
}

// ValidateRoleGraph reports every role sitting on a stored hierarchy
// cycle, not just roles involved in a pending assignment.
func (s *ValidationService) ValidateRoleGraph(ctx context.Context) (*model.ValidationResult, error) {
	snapshot, err := s.directoryDAO.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.validator.ValidateRoleGraph(snapshot), nil
}
