package route

import (
	"github.com/gin-gonic/gin"

	"github.com/ecomdash/backoffice/internal/api/controller"
)

func NewProductRouter(group *gin.RouterGroup) {
	pc := controller.NewProductController()

	group.POST("products", pc.CreateProduct)
	group.PUT("products/:id", pc.UpdateProduct)
	group.DELETE("products/:id", pc.DeleteProduct)
	group.POST("products/bulk", pc.BulkProducts)
	group.POST("products/batch", pc.BatchUpdateProducts)
}
