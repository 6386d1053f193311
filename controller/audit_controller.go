// controller/audit_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arbiterhq/arbiter/audit"
	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	"github.com/arbiterhq/arbiter/util"
	helper_util "github.com/arbiterhq/arbiter/util/helper"
)

type AuditController struct {
	auditService audit.Service
}

func NewAuditController(auditService audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

func (ac *AuditController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit", ac.QueryEntries)
}

// QueryEntries endpoint returns audit entries in a time range,
// optionally filtered by category and actor
func (ac *AuditController) QueryEntries(c *gin.Context) {
	from, to, err := helper_util.GetTimeRangeParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid time range", arbiter_errors.ErrInvalidRequest)
		return
	}
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", arbiter_errors.ErrInvalidRequest)
		return
	}

	entries, err := ac.auditService.QueryEntries(c, from, to, c.Query("category"), c.Query("actor"))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to query audit entries", err)
		return
	}

	if offset > len(entries) {
		offset = len(entries)
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}

	c.JSON(http.StatusOK, entries[offset:end])
}
