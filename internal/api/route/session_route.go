package route

import (
	"github.com/gin-gonic/gin"

	"github.com/ecomdash/backoffice/internal/api/controller"
	"github.com/ecomdash/backoffice/internal/app"
)

func NewSessionRouter(group *gin.RouterGroup, appCtx *app.App) {
	sc := controller.NewSessionController(appCtx.Sessions)

	group.DELETE("session", sc.DeleteSession)
}
