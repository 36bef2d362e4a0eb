package otp

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"bookstore/backend/internal/autherr"
	"bookstore/backend/internal/devotp"
	"bookstore/backend/internal/otp/domain"
	"bookstore/backend/internal/otp/repository"
	"bookstore/backend/internal/otp/sms"
	"bookstore/backend/internal/telemetry"
)

const (
	DefaultTTL          = 5 * time.Minute
	DefaultRateWindow   = 60 * time.Second
	DefaultRateLimitMax = 3

	sendTimeout = 15 * time.Second
)

// Config controls code lifetime and the per-phone request limit.
// At most RateLimitMax codes may be created for one phone within any trailing RateWindow.
type Config struct {
	TTL          time.Duration
	RateWindow   time.Duration
	RateLimitMax int
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.RateWindow <= 0 {
		c.RateWindow = DefaultRateWindow
	}
	if c.RateLimitMax <= 0 {
		c.RateLimitMax = DefaultRateLimitMax
	}
	return c
}

type metrics struct {
	requested    metric.Int64Counter
	rateLimited  metric.Int64Counter
	verified     metric.Int64Counter
	verifyFailed metric.Int64Counter
	swept        metric.Int64Counter
}

func newMetrics(m metric.Meter) metrics {
	var out metrics
	out.requested, _ = m.Int64Counter("otp.requested", metric.WithDescription("OTP codes issued"))
	out.rateLimited, _ = m.Int64Counter("otp.rate_limited", metric.WithDescription("OTP requests rejected by the per-phone limit"))
	out.verified, _ = m.Int64Counter("otp.verified", metric.WithDescription("OTP codes redeemed"))
	out.verifyFailed, _ = m.Int64Counter("otp.verify_failed", metric.WithDescription("OTP redemptions rejected"))
	out.swept, _ = m.Int64Counter("otp.swept", metric.WithDescription("Expired OTP rows deleted"))
	return out
}

// Service issues and redeems codes. Redemption correctness rests on Repository.MarkVerified alone.
type Service struct {
	repo    repository.Repository
	sender  sms.Sender
	cfg     Config
	logger  *zap.Logger
	dev     devotp.Store
	events  telemetry.EventEmitter
	metrics metrics
	now     func() time.Time
}

// NewService returns an OTP service. sender may be nil, in which case codes are only persisted.
func NewService(repo repository.Repository, sender sms.Sender, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		sender:  sender,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		metrics: newMetrics(otel.Meter("bookstore/otp")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithDevStore mirrors issued codes into store for dev retrieval.
func (s *Service) WithDevStore(store devotp.Store) *Service {
	s.dev = store
	return s
}

// WithEvents emits otp.* events to emitter.
func (s *Service) WithEvents(emitter telemetry.EventEmitter) *Service {
	s.events = emitter
	return s
}

// RequestCode issues a new code for phone. The returned value carries the plaintext Code;
// only its hash is stored. Delivery runs in the background and its failure does not fail the request.
func (s *Service) RequestCode(ctx context.Context, phone string) (*domain.OneTimeCode, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, autherr.Validation(err.Error())
	}
	code, err := GenerateOTP()
	if err != nil {
		return nil, autherr.Infra("generate otp", err)
	}
	now := s.now()
	c := &domain.OneTimeCode{
		ID:        uuid.New().String(),
		Phone:     phone,
		Code:      code,
		CodeHash:  HashOTP(code),
		ExpiredAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
	}
	stored, err := s.repo.CreateWithinLimit(ctx, c, now.Add(-s.cfg.RateWindow), s.cfg.RateLimitMax)
	if err != nil {
		return nil, autherr.Infra("create otp code", err)
	}
	if !stored {
		s.metrics.rateLimited.Add(ctx, 1)
		telemetry.EmitAsync(s.events, ctx, telemetry.NewEvent(telemetry.EventOTPRateLimited, "", "otp", nil))
		return nil, autherr.ErrRateLimitExceeded
	}
	s.metrics.requested.Add(ctx, 1)
	if s.dev != nil {
		if err := s.dev.Put(ctx, phone, code, c.ExpiredAt); err != nil {
			s.logger.Warn("otp: dev store put failed", zap.Error(err))
		}
	}
	s.dispatch(phone, code)
	telemetry.EmitAsync(s.events, ctx, telemetry.NewEvent(telemetry.EventOTPRequested, "", "otp", nil))
	return c, nil
}

func (s *Service) dispatch(phone, code string) {
	if s.sender == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := s.sender.SendOTP(ctx, phone, code); err != nil {
			s.logger.Warn("otp: sms dispatch failed", zap.String("phone", sms.MaskPhone(phone)), zap.Error(err))
		}
	}()
}

// VerifyCode redeems the newest unverified, unexpired code matching (phone, code).
// Any miss, including losing a concurrent redemption, is INVALID_OR_EXPIRED_CODE.
func (s *Service) VerifyCode(ctx context.Context, phone, code string) error {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return autherr.Validation(err.Error())
	}
	if !ValidCodeFormat(code) {
		s.metrics.verifyFailed.Add(ctx, 1)
		return autherr.ErrInvalidOrExpiredCode
	}
	now := s.now()
	c, err := s.repo.FindLatestValid(ctx, phone, HashOTP(code), now)
	if err != nil {
		return autherr.Infra("find otp code", err)
	}
	if c == nil || !c.IsValid(now) {
		s.metrics.verifyFailed.Add(ctx, 1)
		return autherr.ErrInvalidOrExpiredCode
	}
	won, err := s.repo.MarkVerified(ctx, c.ID, now)
	if err != nil {
		return autherr.Infra("mark otp verified", err)
	}
	if !won {
		s.metrics.verifyFailed.Add(ctx, 1)
		return autherr.ErrInvalidOrExpiredCode
	}
	s.metrics.verified.Add(ctx, 1)
	telemetry.EmitAsync(s.events, ctx, telemetry.NewEvent(telemetry.EventOTPVerified, "", "otp", nil))
	return nil
}

// SweepExpired deletes every code that expired before now, verified or not.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.DeleteExpiredBefore(ctx, now)
	if err != nil {
		return 0, autherr.Infra("sweep otp codes", err)
	}
	if n > 0 {
		s.metrics.swept.Add(ctx, n)
		telemetry.EmitAsync(s.events, ctx, telemetry.NewEvent(telemetry.EventOTPSwept, "", "otp",
			map[string]string{"deleted": strconv.FormatInt(n, 10)}))
	}
	return n, nil
}

// Now returns the service clock. The sweep endpoint uses it so tests can pin time.
func (s *Service) Now() time.Time { return s.now() }
