// controller/access_controller.go
package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	arbiter_errors "github.com/arbiterhq/arbiter/errors"
	pdp_model "github.com/arbiterhq/arbiter/pdp/model"
	"github.com/arbiterhq/arbiter/service"
	"github.com/arbiterhq/arbiter/util"
)

type AccessController struct {
	authorizationService service.IAuthorizationService
}

func NewAccessController(authorizationService service.IAuthorizationService) *AccessController {
	return &AccessController{
		authorizationService: authorizationService,
	}
}

func (ac *AccessController) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/evaluate", ac.Evaluate)
}

// Evaluate endpoint decides an access request
func (ac *AccessController) Evaluate(c *gin.Context) {
	var request pdp_model.AccessRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", arbiter_errors.ErrInvalidRequest)
		return
	}
	if request.Timestamp.IsZero() {
		request.Timestamp = time.Now()
	}

	decision, err := ac.authorizationService.Evaluate(c, &request)
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrInvalidRequest) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to evaluate access request", err)
		}
		return
	}

	c.JSON(http.StatusOK, decision)
}
