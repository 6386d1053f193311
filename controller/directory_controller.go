// controller/directory_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/service"
	"github.com/arbiterhq/arbiter/util"
)

type DirectoryController struct {
	directoryService service.IDirectoryService
}

func NewDirectoryController(directoryService service.IDirectoryService) *DirectoryController {
	return &DirectoryController{
		directoryService: directoryService,
	}
}

func (dc *DirectoryController) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.PUT("", dc.UpsertUser)
		users.GET("/:id", dc.GetUser)
		users.GET("", dc.ListUsers)
	}
	permissions := r.Group("/permissions")
	{
		permissions.PUT("", dc.UpsertPermission)
		permissions.GET("/:id", dc.GetPermission)
		permissions.GET("", dc.ListPermissions)
	}
}

// UpsertUser endpoint
func (dc *DirectoryController) UpsertUser(c *gin.Context) {
	var user model.User
	if err := c.ShouldBindJSON(&user); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", arbiter_errors.ErrInvalidUserData)
		return
	}
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	saved, err := dc.directoryService.UpsertUser(c, user, actorID)
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrInvalidUserData) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to save user", err)
		}
		return
	}

	c.JSON(http.StatusOK, saved)
}

// GetUser endpoint
func (dc *DirectoryController) GetUser(c *gin.Context) {
	user, err := dc.directoryService.GetUser(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrUserNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "User not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve user", err)
		}
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers endpoint
func (dc *DirectoryController) ListUsers(c *gin.Context) {
	users, err := dc.directoryService.ListUsers(c)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpsertPermission endpoint
func (dc *DirectoryController) UpsertPermission(c *gin.Context) {
	var permission model.Permission
	if err := c.ShouldBindJSON(&permission); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid permission data", arbiter_errors.ErrInvalidPermissionData)
		return
	}
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	saved, err := dc.directoryService.UpsertPermission(c, permission, actorID)
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrInvalidPermissionData) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid permission data", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to save permission", err)
		}
		return
	}

	c.JSON(http.StatusOK, saved)
}

// GetPermission endpoint
func (dc *DirectoryController) GetPermission(c *gin.Context) {
	permission, err := dc.directoryService.GetPermission(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrPermissionNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Permission not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve permission", err)
		}
		return
	}
	c.JSON(http.StatusOK, permission)
}

// ListPermissions endpoint
func (dc *DirectoryController) ListPermissions(c *gin.Context) {
	permissions, err := dc.directoryService.ListPermissions(c)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list permissions", err)
		return
	}
	c.JSON(http.StatusOK, permissions)
}
