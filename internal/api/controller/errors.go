package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"

	"github.com/ecomdash/backoffice/internal/gateway"
	"github.com/ecomdash/backoffice/internal/session"
)

// writeError translates gateway and session errors into HTTP responses. The
// upstream status of a remote failure is reported in the body so the UI can
// distinguish "our server broke" from "the commerce API broke".
func writeError(c *gin.Context, err error) {
	var unauthorized *gateway.UnauthorizedError
	var validation *gateway.ValidationError
	var fetch *gateway.FetchError
	var mutation *gateway.MutationError

	switch {
	case errors.Is(err, session.ErrMutationInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &unauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": unauthorized.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  validation.Error(),
			"fields": validation.FieldErrors,
		})
	case errors.As(err, &fetch):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":           fetch.Error(),
			"upstream_status": fetch.Status,
		})
	case errors.As(err, &mutation):
		status := http.StatusBadGateway
		if errdefs.IsNotFound(err) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":           mutation.Error(),
			"upstream_status": mutation.Status,
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
