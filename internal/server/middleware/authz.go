package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookstore/backend/internal/autherr"
	"bookstore/backend/internal/policy/engine"
)

// RequireAction asks the policy evaluator whether the authenticated caller may perform action.
// Must run after RequireAuth. Evaluation errors deny.
func RequireAction(evaluator engine.Evaluator, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID, ok := GetUserID(ctx)
		if !ok {
			AbortWithError(c, autherr.ErrNoTokenPresent)
			return
		}
		role, _ := GetRole(ctx)
		allowed, err := evaluator.Allow(ctx, engine.Input{UserID: userID, Role: role, Action: action})
		if err != nil {
			zap.L().Warn("policy evaluation failed", zap.String("action", action), zap.Error(err))
		}
		if err != nil || !allowed {
			AbortWithError(c, autherr.ErrForbidden)
			return
		}
		c.Next()
	}
}
