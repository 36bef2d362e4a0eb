package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-jose/go-jose/v4"

	"bookstore/backend/internal/server/middleware"
)

// Sweeper deletes expired codes. Implemented by *otp.Service.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	Now() time.Time
}

// SweepHandler returns the handler of POST /admin/otp/sweep.
func SweepHandler(s Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := s.SweepExpired(c.Request.Context(), s.Now())
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": n})
	}
}

// JWKSHandler returns the handler of GET /.well-known/jwks.json.
func JWKSHandler(keys func() jose.JSONWebKeySet) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=300")
		c.JSON(http.StatusOK, keys())
	}
}
