package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/signet"
	"github.com/layer-3/signet/core"
)

const (
	// SessionCookie carries the session token for browser clients
	SessionCookie = "signet.session-token"

	sessionKey = "session"
)

// SessionMiddleware reconstructs the session from a bearer token or the
// session cookie and stores the view in the gin context
func SessionMiddleware(client signet.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(SessionCookie)
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No session"})
			return
		}

		view, err := client.Session(raw)
		if err != nil {
			if errors.Is(err, core.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			}
			return
		}

		c.Set(sessionKey, view)
		c.Next()
	}
}

// SessionFromContext returns the view stored by SessionMiddleware
func SessionFromContext(c *gin.Context) (core.SessionView, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return core.SessionView{}, false
	}
	view, ok := v.(core.SessionView)
	return view, ok
}

// RequestLogger logs one line per request
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func bearerToken(header string) string {
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
