package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecomdash/backoffice/internal/api/middleware"
	"github.com/ecomdash/backoffice/internal/logger"
	"github.com/ecomdash/backoffice/internal/query"
	"github.com/ecomdash/backoffice/internal/session"
)

// ViewController handles the list-view endpoints: rendering the derived view
// and updating the filter/search/sort/page state that drives it.
type ViewController struct{}

// NewViewController creates a new ViewController.
func NewViewController() *ViewController {
	return &ViewController{}
}

// sessionOrAbort fetches the session resolved by the middleware.
func sessionOrAbort(c *gin.Context) (*session.List, bool) {
	list, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return nil, false
	}
	return list, true
}

// GetView handles GET /view - computes and returns the current page.
func (vc *ViewController) GetView(c *gin.Context) {
	logger.WithComponent("view-controller").Debugf("GET /view handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	view, err := list.View(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type filtersRequest struct {
	Category  string `json:"category"`
	Status    string `json:"status"`
	SortField string `json:"sortField"`
	SortDir   string `json:"sortDir"`
}

// PutFilters handles PUT /view/filters - replaces category and status.
// Omitted sort fields keep the current sort.
func (vc *ViewController) PutFilters(c *gin.Context) {
	logger.WithComponent("view-controller").Debugf("PUT /view/filters handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var req filtersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	f := list.Filters()
	f.Category = req.Category
	f.Status = query.Status(req.Status)
	if req.SortField != "" {
		f.Sort.Field = query.Field(req.SortField)
	}
	if req.SortDir != "" {
		f.Sort.Dir = query.Dir(req.SortDir)
	}
	list.SetFilters(f)

	c.JSON(http.StatusOK, gin.H{"message": "filters updated"})
}

type searchRequest struct {
	Term  string `json:"term"`
	Flush bool   `json:"flush"`
}

// PutSearch handles PUT /view/search - schedules the debounced search term.
// With flush=true the term is applied immediately.
func (vc *ViewController) PutSearch(c *gin.Context) {
	logger.WithComponent("view-controller").Debugf("PUT /view/search handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	list.SetSearch(req.Term)
	if req.Flush {
		list.FlushSearch()
	}
	c.JSON(http.StatusOK, gin.H{"message": "search scheduled"})
}

type sortRequest struct {
	Field string `json:"field" binding:"required"`
}

// PutSort handles PUT /view/sort - reselects the sort column. Selecting the
// active column flips its direction.
func (vc *ViewController) PutSort(c *gin.Context) {
	logger.WithComponent("view-controller").Debugf("PUT /view/sort handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort field is required"})
		return
	}

	list.SetSort(query.Field(req.Field))
	c.JSON(http.StatusOK, gin.H{"message": "sort updated"})
}

type pageRequest struct {
	Page int `json:"page" binding:"required,min=1"`
}

// PutPage handles PUT /view/page - moves to a 1-based page.
func (vc *ViewController) PutPage(c *gin.Context) {
	logger.WithComponent("view-controller").Debugf("PUT /view/page handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}

	list.SetPage(req.Page)
	c.JSON(http.StatusOK, gin.H{"message": "page updated"})
}

type pageSizeRequest struct {
	PageSize int `json:"pageSize" binding:"required,min=1"`
}

// PutPageSize handles PUT /view/page-size - changes the page size and resets
// the page index.
func (vc *ViewController) PutPageSize(c *gin.Context) {
	logger.WithComponent("view-controller").Debugf("PUT /view/page-size handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var req pageSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be a positive integer"})
		return
	}

	list.SetPageSize(req.PageSize)
	c.JSON(http.StatusOK, gin.H{"message": "page size updated"})
}

// PostReset handles POST /view/reset - restores defaults and drops the cache.
func (vc *ViewController) PostReset(c *gin.Context) {
	logger.WithComponent("view-controller").Debugf("POST /view/reset handler called")
	list, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	list.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "view reset"})
}
