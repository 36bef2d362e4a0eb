// server runs the bookstore auth HTTP API and its gRPC health endpoint.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"bookstore/backend/internal/audit"
	auditrepo "bookstore/backend/internal/audit/repository"
	"bookstore/backend/internal/config"
	"bookstore/backend/internal/db"
	"bookstore/backend/internal/devotp"
	"bookstore/backend/internal/health"
	identitydomain "bookstore/backend/internal/identity/domain"
	identityhandler "bookstore/backend/internal/identity/handler"
	"bookstore/backend/internal/identity/provider"
	credrepo "bookstore/backend/internal/identity/repository"
	"bookstore/backend/internal/identity/service"
	"bookstore/backend/internal/logging"
	"bookstore/backend/internal/otp"
	otprepo "bookstore/backend/internal/otp/repository"
	"bookstore/backend/internal/otp/sms"
	"bookstore/backend/internal/policy/engine"
	"bookstore/backend/internal/security"
	"bookstore/backend/internal/server"
	"bookstore/backend/internal/server/middleware"
	"bookstore/backend/internal/telemetry"
	oteltelemetry "bookstore/backend/internal/telemetry/otel"
	"bookstore/backend/internal/telemetry/producer"
	userrepo "bookstore/backend/internal/user/repository"
)

const healthSyncInterval = 10 * time.Second

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newDB,
			newUserRepository,
			newCredentialRepository,
			newOTPRepository,
			newAuditLogger,
			newTokenProvider,
			newHasher,
			newProviderRegistry,
			newSMSSender,
			newDevOTPStore,
			newEventEmitter,
			newOTPService,
			newAuthService,
			newPolicyEvaluator,
			newHealthChecker,
			newRateLimiter,
			newAuthHandler,
			newRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(startHTTPServer, startGRPCHealth),
	)
	app.Run()
}

func newConfig() (*config.Config, error) {
	return config.Load()
}

func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		_ = logger.Sync()
		return nil
	}})
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*oteltelemetry.Providers, error) {
	providers, err := oteltelemetry.NewProviders(context.Background(), cfg.OTelEndpoint, cfg.ServiceName, cfg.OTelInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}
	providers.SetGlobal()
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Let in-flight async emits finish before the log exporter goes away.
			time.Sleep(telemetry.ShutdownDrainDuration)
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(stopCtx); err != nil {
				logger.Warn("telemetry shutdown", zap.Error(err))
			}
			return nil
		},
	})
	return providers, nil
}

func newDB(lc fx.Lifecycle, cfg *config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL must be set")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return conn.Close() }})
	return conn, nil
}

func newUserRepository(conn *sql.DB) userrepo.Repository {
	return userrepo.NewPostgresRepository(conn)
}

func newCredentialRepository(conn *sql.DB) credrepo.Repository {
	return credrepo.NewPostgresRepository(conn)
}

func newOTPRepository(conn *sql.DB) otprepo.Repository {
	return otprepo.NewPostgresRepository(conn)
}

func newAuditLogger(conn *sql.DB, logger *zap.Logger) audit.AuditLogger {
	return audit.NewLogger(auditrepo.NewPostgresRepository(conn), logger)
}

func newTokenProvider(cfg *config.Config) (*security.TokenProvider, error) {
	signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return nil, fmt.Errorf("load JWT keys: %w", err)
	}
	return security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL()), nil
}

func newHasher(cfg *config.Config) *security.Hasher {
	return security.NewHasher(cfg.BcryptCost)
}

func newProviderRegistry(cfg *config.Config, logger *zap.Logger) *provider.Registry {
	reg := provider.NewRegistry()
	if cfg.GoogleClientID == "" {
		logger.Info("google login disabled: GOOGLE_CLIENT_ID not set")
		return reg
	}
	return reg.Register(identitydomain.ProviderGoogle, provider.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleTokenInfoURL, nil))
}

func newSMSSender(cfg *config.Config, logger *zap.Logger) sms.Sender {
	if cfg.SMSLocalAPIKey == "" {
		logger.Warn("SMS_LOCAL_API_KEY not set: OTP codes are logged instead of sent")
		return sms.NewLogSender(logger)
	}
	return sms.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
}

// devOTP carries the optional dev store; Store is nil unless dev OTP mode is on.
type devOTP struct {
	Store devotp.Store
}

func newDevOTPStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (devOTP, error) {
	if !cfg.OTPReturnToClient || cfg.IsProduction() {
		return devOTP{}, nil
	}
	logger.Warn("dev OTP mode enabled: codes are retrievable at GET /dev/otp")
	if cfg.RedisAddr == "" {
		return devOTP{Store: devotp.NewMemoryStore()}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return devOTP{}, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
	return devOTP{Store: devotp.NewRedisStore(client)}, nil
}

func newEventEmitter(lc fx.Lifecycle, cfg *config.Config, providers *oteltelemetry.Providers, logger *zap.Logger) telemetry.EventEmitter {
	emitters := []telemetry.EventEmitter{oteltelemetry.NewEventEmitter(providers.LoggerProvider)}
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuthEventsTopic); kp != nil {
		logger.Info("auth events published to kafka", zap.String("topic", cfg.AuthEventsTopic))
		emitters = append(emitters, kp)
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return kp.Close() }})
	}
	return telemetry.Multi(emitters...)
}

func newOTPService(cfg *config.Config, repo otprepo.Repository, sender sms.Sender, dev devOTP, events telemetry.EventEmitter, logger *zap.Logger) *otp.Service {
	svc := otp.NewService(repo, sender, otp.Config{
		TTL:          cfg.OTPCodeTTL(),
		RateWindow:   cfg.OTPWindow(),
		RateLimitMax: cfg.OTPRateLimitMax,
	}, logger).WithEvents(events)
	if dev.Store != nil {
		svc.WithDevStore(dev.Store)
	}
	return svc
}

func newAuthService(
	cfg *config.Config,
	users userrepo.Repository,
	creds credrepo.Repository,
	codes *otp.Service,
	providers *provider.Registry,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	auditLogger audit.AuditLogger,
	events telemetry.EventEmitter,
	logger *zap.Logger,
) *service.AuthService {
	return service.NewAuthService(users, creds, codes, providers, hasher, tokens, cfg.VerifyTimeout()).
		WithAudit(auditLogger).
		WithEvents(events).
		WithLogger(logger)
}

func newPolicyEvaluator() (*engine.OPAEvaluator, error) {
	return engine.NewOPAEvaluator(context.Background(), "")
}

func newHealthChecker(conn *sql.DB, policy *engine.OPAEvaluator) *health.Checker {
	return health.NewChecker(conn, policy)
}

func newRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newAuthHandler(auth *service.AuthService, codes *otp.Service) *identityhandler.AuthHandler {
	return identityhandler.NewAuthHandler(auth, codes)
}

func newRouter(
	cfg *config.Config,
	auth *identityhandler.AuthHandler,
	tokens *security.TokenProvider,
	codes *otp.Service,
	policy *engine.OPAEvaluator,
	auditLogger audit.AuditLogger,
	checker *health.Checker,
	limiter *middleware.RateLimiter,
	dev devOTP,
	logger *zap.Logger,
) *gin.Engine {
	return server.NewRouter(server.RouterDeps{
		Auth:        auth,
		Tokens:      tokens,
		Sweeper:     codes,
		Policy:      policy,
		Audit:       auditLogger,
		Health:      checker,
		RateLimiter: limiter,
		Logger:      logger,
		ServiceName: cfg.ServiceName,
		DevOTP:      dev.Store,
	})
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg *config.Config, logger *zap.Logger) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})
			go func() {
				defer close(done)
				logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.Run(runCtx, cfg.HTTPAddr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func startGRPCHealth(lc fx.Lifecycle, checker *health.Checker, cfg *config.Config, logger *zap.Logger) {
	if cfg.GRPCHealthAddr == "" {
		return
	}
	hs := health.NewGRPCServer()
	gs := server.NewGRPCServer(hs)
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})
			go checker.Sync(runCtx, hs, healthSyncInterval, logger)
			go func() {
				defer close(done)
				logger.Info("grpc health listening", zap.String("addr", cfg.GRPCHealthAddr))
				if err := server.RunGRPC(runCtx, gs, cfg.GRPCHealthAddr); err != nil {
					logger.Error("grpc health stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
