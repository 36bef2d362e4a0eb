// Package handler serves the dev-only OTP lookup. Registered only when OTP_RETURN_TO_CLIENT is
// enabled outside production.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore/backend/internal/autherr"
	"bookstore/backend/internal/devotp"
	"bookstore/backend/internal/otp"
	"bookstore/backend/internal/server/middleware"
)

// OTP returns the handler of GET /dev/otp?phone=...
func OTP(store devotp.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone, err := otp.NormalizePhone(c.Query("phone"))
		if err != nil {
			middleware.AbortWithError(c, autherr.Validation(err.Error()))
			return
		}
		code, ok, err := store.Get(c.Request.Context(), phone)
		if err != nil {
			middleware.AbortWithError(c, autherr.Infra("dev otp lookup", err))
			return
		}
		if !ok {
			middleware.AbortWithError(c, autherr.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"phone": phone, "code": code})
	}
}
