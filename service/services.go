// service/services.go
package service

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/arbiterhq/arbiter/audit"
	"github.com/arbiterhq/arbiter/dao"
	"github.com/arbiterhq/arbiter/relationship"
	"github.com/arbiterhq/arbiter/util"
)

type Services struct {
	Policy        IPolicyService
	Authorization IAuthorizationService
	Analysis      IAnalysisService
	Validation    IValidationService
	Role          IRoleService
	Directory     IDirectoryService
}

func InitializeServices(
	driver neo4j.Driver,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) (*Services, error) {
	policyDAO := dao.NewPolicyDAO(driver, auditService)
	roleDAO := dao.NewRoleDAO(driver, auditService)
	permissionDAO := dao.NewPermissionDAO(driver, auditService)
	userDAO := dao.NewUserDAO(driver, auditService)
	directoryDAO := dao.NewDirectoryDAO(policyDAO, roleDAO, permissionDAO, userDAO)

	validator := relationship.NewValidator()

	services := &Services{
		Policy:        NewPolicyService(policyDAO, directoryDAO, validationUtil, validator, notificationSvc, eventBus),
		Authorization: NewAuthorizationService(policyDAO, auditService),
		Analysis:      NewAnalysisService(directoryDAO, auditService, notificationSvc),
		Validation:    NewValidationService(directoryDAO, validator),
		Role:          NewRoleService(roleDAO, userDAO, directoryDAO, validationUtil, validator, eventBus),
		Directory:     NewDirectoryService(userDAO, permissionDAO, validationUtil),
	}

	return services, nil
}
