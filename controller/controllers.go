// controller/controllers.go
package controller

import (
	"github.com/arbiterhq/arbiter/audit"
	"github.com/arbiterhq/arbiter/service"
)

type Controllers struct {
	Policy     *PolicyController
	Access     *AccessController
	Analysis   *AnalysisController
	Validation *ValidationController
	Role       *RoleController
	Directory  *DirectoryController
	Audit      *AuditController
}

func InitializeControllers(services *service.Services, auditService audit.Service) *Controllers {
	return &Controllers{
		Policy:     NewPolicyController(services.Policy),
		Access:     NewAccessController(services.Authorization),
		Analysis:   NewAnalysisController(services.Analysis),
		Validation: NewValidationController(services.Validation),
		Role:       NewRoleController(services.Role),
		Directory:  NewDirectoryController(services.Directory),
		Audit:      NewAuditController(auditService),
	}
}
