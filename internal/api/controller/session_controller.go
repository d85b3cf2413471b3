package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecomdash/backoffice/internal/api/middleware"
	"github.com/ecomdash/backoffice/internal/logger"
	"github.com/ecomdash/backoffice/internal/session"
)

// SessionController handles session lifecycle endpoints.
type SessionController struct {
	sessions *session.Manager
}

// NewSessionController creates a new SessionController for the given manager.
func NewSessionController(sessions *session.Manager) *SessionController {
	return &SessionController{sessions: sessions}
}

// DeleteSession handles DELETE /session - logout teardown. The session's cache
// and selection die with it.
func (sc *SessionController) DeleteSession(c *gin.Context) {
	id := c.GetHeader(middleware.SessionHeader)
	logger.WithComponent("session-controller").Debugf("DELETE /session handler called for %s", id)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + middleware.SessionHeader + " header"})
		return
	}

	sc.sessions.Drop(id)
	c.JSON(http.StatusOK, gin.H{"message": "session dropped"})
}
