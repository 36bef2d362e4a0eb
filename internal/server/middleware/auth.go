package middleware

import (
	"github.com/gin-gonic/gin"

	"bookstore/backend/internal/security"
)

// RequireAuth validates the Bearer session token and places user_id and role on the request
// context. Missing header fails NO_TOKEN_PRESENT; bad or expired tokens fail INVALID_TOKEN or EXPIRED_TOKEN.
func RequireAuth(tokens *security.TokenProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := security.ParseBearer(c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), claims.UserID, claims.Role))
		c.Next()
	}
}
