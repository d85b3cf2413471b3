package route

import (
	"github.com/gin-gonic/gin"

	"github.com/ecomdash/backoffice/internal/api/controller"
)

func NewSelectionRouter(group *gin.RouterGroup) {
	sc := controller.NewSelectionController()

	group.PUT("selection/:id", sc.ToggleSelect)
	group.POST("selection/all", sc.SelectAll)
	group.DELETE("selection", sc.ClearSelection)
}
