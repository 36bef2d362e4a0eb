package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"bookstore/backend/internal/audit"
	"bookstore/backend/internal/devotp"
	devotphandler "bookstore/backend/internal/devotp/handler"
	"bookstore/backend/internal/health"
	identityhandler "bookstore/backend/internal/identity/handler"
	"bookstore/backend/internal/policy/engine"
	"bookstore/backend/internal/security"
	"bookstore/backend/internal/server/middleware"
)

// ActionSweepOTP is the policy action guarding POST /admin/otp/sweep.
const ActionSweepOTP = "otp.sweep"

// RouterDeps holds what NewRouter wires into routes.
type RouterDeps struct {
	Auth        *identityhandler.AuthHandler
	Tokens      *security.TokenProvider
	Sweeper     identityhandler.Sweeper
	Policy      engine.Evaluator
	Audit       audit.AuditLogger
	Health      *health.Checker
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
	ServiceName string
	// DevOTP is set only when dev OTP mode is enabled outside production; nil leaves /dev/otp unregistered.
	DevOTP devotp.Store
}

// NewRouter wires gin routes and middleware.
func NewRouter(d RouterDeps) *gin.Engine {
	if d.Health == nil {
		d.Health = health.NewChecker(nil, nil)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(otelgin.Middleware(d.ServiceName))
	r.Use(middleware.ClientIP())

	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", d.Health.Readiness())
	r.GET("/.well-known/jwks.json", identityhandler.JWKSHandler(d.Tokens.JWKS))

	api := r.Group("", d.RateLimiter.Handler())

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", d.Auth.Register)
		authGroup.POST("/login", d.Auth.Login)
		authGroup.POST("/providers/:provider/login", d.Auth.ProviderLogin)

		otp := authGroup.Group("/otp")
		{
			otp.POST("/request", d.Auth.RequestOTP)
			otp.POST("/verify", d.Auth.VerifyOTP)
		}

		authed := authGroup.Group("", middleware.RequireAuth(d.Tokens), middleware.Audit(d.Audit))
		authed.GET("/me", d.Auth.Me)
		authed.GET("/credentials", d.Auth.ListCredentials)
		authed.POST("/credentials/:provider", d.Auth.LinkCredential)
		authed.DELETE("/credentials/:provider", d.Auth.UnlinkCredential)
		authed.PUT("/password", d.Auth.ChangePassword)
	}

	admin := api.Group("/admin", middleware.RequireAuth(d.Tokens), middleware.Audit(d.Audit))
	admin.POST("/otp/sweep", middleware.RequireAction(d.Policy, ActionSweepOTP), identityhandler.SweepHandler(d.Sweeper))

	if d.DevOTP != nil {
		r.GET("/dev/otp", devotphandler.OTP(d.DevOTP))
	}
	return r
}
