package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const contextUserIDKey = "userID"

// requestLogger logs incoming requests with timing and a generated request ID
func requestLogger(c *gin.Context) {
	start := time.Now()
	requestID := uuid.NewString()
	c.Set("requestID", requestID)
	c.Writer.Header().Set("X-Request-ID", requestID)

	c.Next()

	log.WithFields(log.Fields{
		"requestID": requestID,
		"method":    c.Request.Method,
		"path":      c.Request.URL.Path,
		"status":    c.Writer.Status(),
		"latency":   time.Since(start).String(),
	}).Info("HTTP request")
}

// requireAuth rejects requests that do not carry a valid session cookie.
// On success the authenticated user ID is stored on the context.
func requireAuth(sessions *sessionCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		if err != nil {
			jsonError(c, http.StatusUnauthorized, fmt.Errorf("missing session cookie"), "authentication required")
			c.Abort()
			return
		}

		userID, err := sessions.Decode(token, time.Now())
		if err != nil {
			jsonError(c, http.StatusUnauthorized, err, "authentication required")
			c.Abort()
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Next()
	}
}

// authenticatedUserID returns the user ID set by requireAuth
func authenticatedUserID(c *gin.Context) int64 {
	return c.GetInt64(contextUserIDKey)
}
