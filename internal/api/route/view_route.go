package route

import (
	"github.com/gin-gonic/gin"

	"github.com/ecomdash/backoffice/internal/api/controller"
)

func NewViewRouter(group *gin.RouterGroup) {
	vc := controller.NewViewController()

	group.GET("view", vc.GetView)
	group.PUT("view/filters", vc.PutFilters)
	group.PUT("view/search", vc.PutSearch)
	group.PUT("view/sort", vc.PutSort)
	group.PUT("view/page", vc.PutPage)
	group.PUT("view/page-size", vc.PutPageSize)
	group.POST("view/reset", vc.PostReset)
}
