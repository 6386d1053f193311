// controller/analysis_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	"github.com/arbiterhq/arbiter/service"
	"github.com/arbiterhq/arbiter/util"
)

type AnalysisController struct {
	analysisService service.IAnalysisService
}

func NewAnalysisController(analysisService service.IAnalysisService) *AnalysisController {
	return &AnalysisController{
		analysisService: analysisService,
	}
}

func (ac *AnalysisController) RegisterRoutes(r *gin.RouterGroup) {
	analysis := r.Group("/analysis")
	{
		analysis.POST("", ac.RunAnalysis)
		analysis.GET("/overlap-matrix", ac.GetOverlapMatrix)
	}
}

// RunAnalysis endpoint runs all conflict detection passes
func (ac *AnalysisController) RunAnalysis(c *gin.Context) {
	actor, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	report, err := ac.analysisService.RunAnalysis(c, actor)
	if err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrEmptyPolicySnapshot):
			util.RespondWithError(c, http.StatusUnprocessableEntity, "No policies to analyze", err)
		case errors.Is(err, arbiter_errors.ErrNilSnapshot):
			util.RespondWithError(c, http.StatusUnprocessableEntity, "Entity snapshot unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to run analysis", err)
		}
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetOverlapMatrix endpoint returns pairwise overlap records
func (ac *AnalysisController) GetOverlapMatrix(c *gin.Context) {
	matrix, err := ac.analysisService.BuildOverlapMatrix(c)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to build overlap matrix", err)
		return
	}

	c.JSON(http.StatusOK, matrix)
}
