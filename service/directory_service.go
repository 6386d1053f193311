// service/directory_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/dao"
	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	logger "github.com/arbiterhq/arbiter/logging"
	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/util"
)

type IDirectoryService interface {
	UpsertUser(ctx context.Context, user model.User, actorID string) (*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpsertPermission(ctx context.Context, permission model.Permission, actorID string) (*model.Permission, error)
	GetPermission(ctx context.Context, permissionID string) (*model.Permission, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
}

// DirectoryService manages the user and permission entities the
// engine evaluates against.
type DirectoryService struct {
	userDAO        *dao.UserDAO
	permissionDAO  *dao.PermissionDAO
	validationUtil *util.ValidationUtil
}

func NewDirectoryService(userDAO *dao.UserDAO, permissionDAO *dao.PermissionDAO, validationUtil *util.ValidationUtil) *DirectoryService {
	return &DirectoryService{
		userDAO:        userDAO,
		permissionDAO:  permissionDAO,
		validationUtil: validationUtil,
	}
}

func (s *DirectoryService) UpsertUser(ctx context.Context, user model.User, actorID string) (*model.User, error) {
	if err := s.validationUtil.ValidateUser(user); err != nil {
		logger.Warn("User failed field validation", zap.Error(err), zap.String("userID", user.ID))
		return nil, arbiter_errors.ErrInvalidUserData
	}
	userID, err := s.userDAO.UpsertUser(ctx, user, actorID)
	if err != nil {
		return nil, err
	}
	return s.userDAO.GetUser(ctx, userID)
}

func (s *DirectoryService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.userDAO.GetUser(ctx, userID)
}

func (s *DirectoryService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userDAO.ListUsers(ctx)
}

func (s *DirectoryService) UpsertPermission(ctx context.Context, permission model.Permission, actorID string) (*model.Permission, error) {
	if err := s.validationUtil.ValidatePermission(permission); err != nil {
		logger.Warn("Permission failed field validation", zap.Error(err), zap.String("permissionID", permission.ID))
		return nil, arbiter_errors.ErrInvalidPermissionData
	}
	permissionID, err := s.permissionDAO.UpsertPermission(ctx, permission, actorID)
	if err != nil {
		return nil, err
	}
	return s.permissionDAO.GetPermission(ctx, permissionID)
}

func (s *DirectoryService) GetPermission(ctx context.Context, permissionID string) (*model.Permission, error) {
	return s.permissionDAO.GetPermission(ctx, permissionID)
}

func (s *DirectoryService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return s.permissionDAO.ListPermissions(ctx)
}
