package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ecomdash/backoffice/internal/gateway"
	"github.com/ecomdash/backoffice/internal/session"
)

// SessionHeader carries the UI session id on every stateful request.
const SessionHeader = "X-Session-ID"

// sessionContextKey is the gin context key the resolved session is stored under.
const sessionContextKey = "ui_session"

// ResolveSession looks up (or creates) the session named by the X-Session-ID
// header and stores it in the gin context. Requests without the header are
// rejected with 401. An incoming Authorization bearer token is forwarded into
// the request context so the gateway sends it upstream.
func ResolveSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + SessionHeader + " header"})
			return
		}

		list, err := sessions.GetOrCreate(id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cannot create session"})
			return
		}
		c.Set(sessionContextKey, list)

		if auth := c.GetHeader("Authorization"); auth != "" {
			if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
				c.Request = c.Request.WithContext(gateway.WithToken(c.Request.Context(), token))
			}
		}

		c.Next()
	}
}

// SessionFromContext returns the session resolved by ResolveSession.
func SessionFromContext(c *gin.Context) (*session.List, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	list, ok := v.(*session.List)
	return list, ok
}
