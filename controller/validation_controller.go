// controller/validation_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/service"
	"github.com/arbiterhq/arbiter/util"
)

type ValidationController struct {
	validationService service.IValidationService
}

func NewValidationController(validationService service.IValidationService) *ValidationController {
	return &ValidationController{
		validationService: validationService,
	}
}

func (vc *ValidationController) RegisterRoutes(r *gin.RouterGroup) {
	validate := r.Group("/validate")
	{
		validate.POST("/user-role", vc.ValidateUserRole)
		validate.POST("/role-permission", vc.ValidateRolePermission)
		validate.POST("/policy", vc.ValidatePolicy)
		validate.GET("/role-graph", vc.ValidateRoleGraph)
	}
}

type assignmentRequest struct {
	UserID       string `json:"user_id"`
	RoleID       string `json:"role_id"`
	PermissionID string `json:"permission_id"`
}

// ValidateUserRole endpoint dry-runs a user-role assignment
func (vc *ValidationController) ValidateUserRole(c *gin.Context) {
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.RoleID == "" {
		util.RespondWithError(c, http.StatusBadRequest, "user_id and role_id are required", arbiter_errors.ErrInvalidRequest)
		return
	}

	result, err := vc.validationService.ValidateUserRole(c, req.UserID, req.RoleID)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to validate assignment", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ValidateRolePermission endpoint dry-runs a role-permission assignment
func (vc *ValidationController) ValidateRolePermission(c *gin.Context) {
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoleID == "" || req.PermissionID == "" {
		util.RespondWithError(c, http.StatusBadRequest, "role_id and permission_id are required", arbiter_errors.ErrInvalidRequest)
		return
	}

	result, err := vc.validationService.ValidateRolePermission(c, req.RoleID, req.PermissionID)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to validate assignment", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ValidatePolicy endpoint checks a policy against the current configuration
func (vc *ValidationController) ValidatePolicy(c *gin.Context) {
	var policy model.Policy
	if err := c.ShouldBindJSON(&policy); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy data", arbiter_errors.ErrInvalidPolicyData)
		return
	}

	result, err := vc.validationService.ValidatePolicy(c, policy)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to validate policy", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ValidateRoleGraph endpoint sweeps the stored hierarchy for cycles
func (vc *ValidationController) ValidateRoleGraph(c *gin.Context) {
	result, err := vc.validationService.ValidateRoleGraph(c)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to validate role graph", err)
		return
	}

	c.JSON(http.StatusOK, result)
}
