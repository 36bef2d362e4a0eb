package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore/backend/internal/audit"
)

// ClientIP stores the caller IP on the request context for audit entries written downstream.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(audit.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// Audit records an audit entry after each successful mutating request of an authenticated caller.
// Reads are skipped. Must run after RequireAuth.
func Audit(logger audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if logger == nil || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		ctx := c.Request.Context()
		userID, ok := GetUserID(ctx)
		if !ok {
			return
		}
		ar := audit.ParseRoute(c.Request.Method, c.FullPath())
		meta := ""
		if p := c.Param("provider"); p != "" {
			b, _ := json.Marshal(map[string]string{"provider": p})
			meta = string(b)
		}
		logger.LogEvent(ctx, userID, ar.Action, ar.Resource, meta)
	}
}
