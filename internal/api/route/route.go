package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ecomdash/backoffice/internal/api/middleware"
	"github.com/ecomdash/backoffice/internal/app"
)

// SetupRoutes builds the gin engine: health endpoint plus the session-scoped
// view, selection, product and session routes.
func SetupRoutes(appCtx *app.App, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(log))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})

	// Teardown reads the session header itself: dropping a session that no
	// longer exists must not create it first.
	lifecycleRouter := r.Group("")
	lifecycleRouter.Use(middleware.RequestTimeout(appCtx.Config.Server.RequestTimeout))
	NewSessionRouter(lifecycleRouter, appCtx)

	// Everything below requires a resolved session.
	sessionRouter := r.Group("")
	sessionRouter.Use(middleware.RequestTimeout(appCtx.Config.Server.RequestTimeout))
	sessionRouter.Use(middleware.ResolveSession(appCtx.Sessions))

	NewViewRouter(sessionRouter)
	NewSelectionRouter(sessionRouter)
	NewProductRouter(sessionRouter)

	return r
}
