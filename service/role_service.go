// service/role_service.go
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

type IRoleService interface {
	UpsertRole(ctx context.Context, role model.Role, userID string) (*model.Role, error)
	DeleteRole(ctx context.Context, roleID string, userID string) error
	GetRole(ctx context.Context, roleID string) (*model.Role, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	AssignRoleToUser(ctx context.Context, userID, roleID, actorID string) (*model.ValidationResult, error)
}

// RoleService manages the role hierarchy. Writes that would create an
// inheritance cycle are rejected before they reach the store.
type RoleService struct {
	roleDAO        *dao.RoleDAO
	userDAO        *dao.UserDAO
	directoryDAO   *dao.DirectoryDAO
	validationUtil *util.ValidationUtil
	validator      *relationship.Validator
	eventBus       *util.EventBus
}

func NewRoleService(
	roleDAO *dao.RoleDAO,
	userDAO *dao.UserDAO,
	directoryDAO *dao.DirectoryDAO,
	validationUtil *util.ValidationUtil,
	validator *relationship.Validator,
	eventBus *util.EventBus,
) *RoleService {
	service := &RoleService{
		roleDAO:        roleDAO,
		userDAO:        userDAO,
		directoryDAO:   directoryDAO,
		validationUtil: validationUtil,
		validator:      validator,
		eventBus:       eventBus,
	}

	// Role and assignment changes alter which policies apply, so
	// cached decisions must go.
	eventBus.Subscribe(util.EventRoleChanged, service.handleDirectoryChanged)
	eventBus.Subscribe(util.EventUserAssigned, service.handleDirectoryChanged)

	return service
}

func (s *RoleService) handleDirectoryChanged(ctx context.Context, event util.Event) error {
	if err := db.InvalidateDecisions(ctx); err != nil {
		logger.Error("Failed to invalidate cached decisions", zap.Error(err), zap.String("event", event.Type))
		return err
	}
	return nil
}

func (s *RoleService) UpsertRole(ctx context.Context, role model.Role, userID string) (*model.Role, error) {
	if err := s.validationUtil.ValidateRole(role); err != nil {
		logger.Warn("Role failed field validation", zap.Error(err), zap.String("roleName", role.Name))
		return nil, arbiter_errors.ErrInvalidRoleData
	}

	if role.ParentRole != "" {
		snapshot, err := s.directoryDAO.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		roles := snapshot.RolesByID()
		candidate := role
		if candidate.ID == "" {
			candidate.ID = candidate.Name
		}
		roles[candidate.ID] = candidate
		if relationship.HasCycle(candidate.ID, roles) {
			logger.Warn("Role hierarchy cycle rejected",
				zap.String("roleID", candidate.ID),
				zap.String("parentRole", role.ParentRole))
			return nil, arbiter_errors.ErrRoleConflict
		}
	}

	roleID, err := s.roleDAO.UpsertRole(ctx, role, userID)
	if err != nil {
		return nil, err
	}

	saved, err := s.roleDAO.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	s.eventBus.Publish(ctx, util.EventRoleChanged, *saved)
	return saved, nil
}

func (s *RoleService) DeleteRole(ctx context.Context, roleID string, userID string) error {
	if err := s.roleDAO.DeleteRole(ctx, roleID, userID); err != nil {
		return err
	}
	s.eventBus.Publish(ctx, util.EventRoleChanged, model.Role{ID: roleID})
	return nil
}

func (s *RoleService) GetRole(ctx context.Context, roleID string) (*model.Role, error) {
	return s.roleDAO.GetRole(ctx, roleID)
}

func (s *RoleService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.roleDAO.ListRoles(ctx)
}

// AssignRoleToUser validates the assignment against the current
// snapshot. Validation errors block the write; the result is returned
// either way so callers can surface warnings.
func (s *RoleService) AssignRoleToUser(ctx context.Context, userID, roleID, actorID string) (*model.ValidationResult, error) {
	snapshot, err := s.directoryDAO.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := s.validator.ValidateUserRoleAssignment(userID, roleID, snapshot)
	if !result.IsValid {
		logger.Warn("Role assignment rejected",
			zap.String("userID", userID),
			zap.String("roleID", roleID),
			zap.Int("errors", len(result.Errors)))
		return result, nil
	}

	if err := s.userDAO.AssignRole(ctx, userID, roleID, actorID); err != nil {
		return nil, err
	}
	s.eventBus.Publish(ctx, util.EventUserAssigned, map[string]string{"userID": userID, "roleID": roleID})
	return result, nil
}
