// router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arbiterhq/arbiter/controller"
	"github.com/arbiterhq/arbiter/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))
	router.Use(middleware.SubjectExtractor())

	api := router.Group("/api/v1")

	controllers.Policy.RegisterRoutes(api)
	controllers.Access.RegisterRoutes(api)
	controllers.Analysis.RegisterRoutes(api)
	controllers.Validation.RegisterRoutes(api)
	controllers.Role.RegisterRoutes(api)
	controllers.Directory.RegisterRoutes(api)
	controllers.Audit.RegisterRoutes(api)

	return router
}
