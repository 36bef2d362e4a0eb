package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookstore/backend/internal/autherr"
)

// ErrorBody is the JSON error envelope of every failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the stable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AbortWithError writes err as {"error":{"code","message"}} with the status mapped from its code
// and stops the handler chain. Infrastructure errors are logged with their cause; clients only
// see a generic message.
func AbortWithError(c *gin.Context, err error) {
	code := autherr.CodeOf(err)
	if code == autherr.CodeInfrastructure {
		zap.L().Error("request failed",
			zap.String("request_id", RequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(autherr.Status(code), ErrorBody{Error: ErrorDetail{
		Code:    string(code),
		Message: autherr.MessageOf(err),
	}})
}
