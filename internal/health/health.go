// Package health reports liveness and readiness over HTTP and the standard gRPC health protocol.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is used for readiness (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is used for readiness (e.g. the OPA evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

const checkTimeout = 2 * time.Second

// Checker aggregates readiness dependencies. Nil dependencies are skipped.
type Checker struct {
	db     Pinger
	policy PolicyChecker
}

// NewChecker returns a Checker over db and policy; either may be nil.
func NewChecker(db Pinger, policy PolicyChecker) *Checker {
	return &Checker{db: db, policy: policy}
}

// Check returns the first failing dependency.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if c.db != nil {
		if err := c.db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			return fmt.Errorf("policy: %w", err)
		}
	}
	return nil
}

// Liveness handles GET /healthz.
func Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness returns the handler of GET /readyz: 200 when every dependency answers, else 503.
func (c *Checker) Readiness() gin.HandlerFunc {
	return func(gc *gin.Context) {
		if err := c.Check(gc.Request.Context()); err != nil {
			gc.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": err.Error()})
			return
		}
		gc.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
