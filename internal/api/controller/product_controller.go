package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ecomdash/backoffice/internal/catalog"
	"github.com/ecomdash/backoffice/internal/logger"
	"github.com/ecomdash/backoffice/internal/session"
)

// ProductController handles the product mutation endpoints. Every successful
// mutation invalidates the session's cache and eagerly refetches the active key.
type ProductController struct {
	validate *validator.Validate
}

// NewProductController creates a new ProductController.
func NewProductController() *ProductController {
	return &ProductController{validate: validator.New()}
}

// CreateProduct handles POST /products.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	logger.WithComponent("product-controller").Debugf("POST /products handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var p catalog.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// The remote assigns the id on create.
	if err := pc.validate.StructExcept(p, "ID"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := list.Create(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, catalog.MessageEnvelope{Message: "product created", Data: created})
}

// UpdateProduct handles PUT /products/:id.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id := c.Param("id")
	logger.WithComponent("product-controller").Debugf("PUT /products/%s handler called", id)
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing product id"})
		return
	}

	var p catalog.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// The id comes from the path, not the body.
	if err := pc.validate.StructExcept(p, "ID"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := list.Update(c.Request.Context(), id, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog.MessageEnvelope{Message: "product updated", Data: updated})
}

// DeleteProduct handles DELETE /products/:id.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	logger.WithComponent("product-controller").Debugf("DELETE /products/%s handler called", id)
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing product id"})
		return
	}

	if err := list.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog.MessageEnvelope{Message: "product deleted"})
}

type bulkRequest struct {
	Operation          string   `json:"operation" binding:"required"`
	DiscountPercentage *float64 `json:"discountPercentage"`
}

// BulkProducts handles POST /products/bulk - one operation over the current
// selection, issued as a single upstream request.
func (pc *ProductController) BulkProducts(c *gin.Context) {
	logger.WithComponent("product-controller").Debugf("POST /products/bulk handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "operation is required"})
		return
	}

	if err := list.Bulk(c.Request.Context(), req.Operation, req.DiscountPercentage); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog.MessageEnvelope{Message: "bulk operation applied"})
}

type batchUpdateRequest struct {
	Updates []struct {
		ID      string          `json:"id" binding:"required"`
		Product catalog.Product `json:"product"`
	} `json:"updates" binding:"required,min=1"`
}

// BatchUpdateProducts handles POST /products/batch - independent updates with
// a per-item outcome report.
func (pc *ProductController) BatchUpdateProducts(c *gin.Context) {
	logger.WithComponent("product-controller").Debugf("POST /products/batch handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var req batchUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "updates are required"})
		return
	}

	ops := make([]session.BatchUpdateOp, 0, len(req.Updates))
	for _, u := range req.Updates {
		ops = append(ops, session.BatchUpdateOp{ID: u.ID, Product: u.Product})
	}

	report, err := list.BatchUpdate(c.Request.Context(), ops)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if !report.OK() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, report)
}
