package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecomdash/backoffice/internal/logger"
)

// SelectionController handles the bulk-selection endpoints.
type SelectionController struct{}

// NewSelectionController creates a new SelectionController.
func NewSelectionController() *SelectionController {
	return &SelectionController{}
}

// ToggleSelect handles PUT /selection/:id - flips selection for one product.
func (sc *SelectionController) ToggleSelect(c *gin.Context) {
	id := c.Param("id")
	logger.WithComponent("selection-controller").Debugf("PUT /selection/%s handler called", id)
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing product id"})
		return
	}

	selected := list.ToggleSelect(id)
	c.JSON(http.StatusOK, gin.H{"id": id, "selected": selected})
}

// SelectAll handles POST /selection/all - selects every entry of the refined
// view across all pages.
func (sc *SelectionController) SelectAll(c *gin.Context) {
	logger.WithComponent("selection-controller").Debugf("POST /selection/all handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	if err := list.SelectAll(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": list.Selected()})
}

// ClearSelection handles DELETE /selection - deselects everything.
func (sc *SelectionController) ClearSelection(c *gin.Context) {
	logger.WithComponent("selection-controller").Debugf("DELETE /selection handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	list.ClearSelection()
	c.JSON(http.StatusOK, gin.H{"message": "selection cleared"})
}
