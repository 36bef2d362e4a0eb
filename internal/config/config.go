// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvProduction is the APP_ENV value that disables dev-only features.
const EnvProduction = "production"

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCHealthAddr is the address of the gRPC health service; empty disables it.
	GRPCHealthAddr string `mapstructure:"GRPC_HEALTH_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAudience  string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the session token lifetime (e.g. "24h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// OTP settings. Durations use time.ParseDuration syntax.
	OTPTTL           string `mapstructure:"OTP_TTL"`
	OTPRateWindow    string `mapstructure:"OTP_RATE_WINDOW"`
	OTPRateLimitMax  int    `mapstructure:"OTP_RATE_LIMIT_MAX"`
	OTPSweepInterval string `mapstructure:"OTP_SWEEP_INTERVAL"`
	// OTPReturnToClient when true stores issued codes for GET /dev/otp. Must not be true when AppEnv is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`

	// SMSLocalAPIKey is the API key for SMS Local. When empty outside production, codes are only logged.
	SMSLocalAPIKey  string `mapstructure:"SMS_LOCAL_API_KEY"`
	SMSLocalSender  string `mapstructure:"SMS_LOCAL_SENDER"`
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`

	// GoogleClientID is the expected aud of Google ID tokens; empty disables Google login.
	GoogleClientID        string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleTokenInfoURL    string `mapstructure:"GOOGLE_TOKENINFO_URL"`
	ProviderVerifyTimeout string `mapstructure:"PROVIDER_VERIFY_TIMEOUT"`

	// RateLimitRPM is the per-IP request budget per minute; 0 disables the limiter.
	RateLimitRPM int `mapstructure:"RATE_LIMIT_RPM"`

	// RedisAddr enables the shared dev OTP store; empty falls back to process memory.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// KafkaBrokers is a comma-separated list of broker addresses; empty disables the event producer.
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	AuthEventsTopic string `mapstructure:"AUTH_EVENTS_TOPIC"`

	// OTelEndpoint is the OTLP gRPC collector address; empty disables export.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName  string `mapstructure:"SERVICE_NAME"`

	// Seed-only: the admin account created by cmd/seed.
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	AppEnv   string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI); an unreadable or malformed one is an error. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read .env: %w", err)
		}
	}

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_HEALTH_ADDR", ":8081")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "bookstore-auth")
	v.SetDefault("JWT_AUDIENCE", "bookstore-api")
	v.SetDefault("JWT_ACCESS_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("OTP_RATE_WINDOW", "60s")
	v.SetDefault("OTP_RATE_LIMIT_MAX", 3)
	v.SetDefault("OTP_SWEEP_INTERVAL", "10m")
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("SMS_LOCAL_API_KEY", "")
	v.SetDefault("SMS_LOCAL_SENDER", "")
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://app.smslocal.in/api/smsapi")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_TOKENINFO_URL", "https://oauth2.googleapis.com/tokeninfo")
	v.SetDefault("PROVIDER_VERIFY_TIMEOUT", "5s")
	v.SetDefault("RATE_LIMIT_RPM", 120)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUTH_EVENTS_TOPIC", "bookstore-auth-events")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("SERVICE_NAME", "bookstore-auth")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints and fills zero values with defaults.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.OTPReturnToClient && c.IsProduction() {
		return errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}
	if c.IsProduction() && c.SMSLocalAPIKey == "" {
		return errors.New("config: SMS_LOCAL_API_KEY is required when APP_ENV=production")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.OTPRateLimitMax < 0 {
		return errors.New("config: OTP_RATE_LIMIT_MAX must not be negative")
	}
	if c.RateLimitRPM < 0 {
		return errors.New("config: RATE_LIMIT_RPM must not be negative")
	}
	for key, raw := range map[string]string{
		"JWT_ACCESS_TTL":          c.JWTAccessTTL,
		"OTP_TTL":                 c.OTPTTL,
		"OTP_RATE_WINDOW":         c.OTPRateWindow,
		"OTP_SWEEP_INTERVAL":      c.OTPSweepInterval,
		"PROVIDER_VERIFY_TIMEOUT": c.ProviderVerifyTimeout,
	} {
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err != nil || d <= 0 {
			return errors.New("config: " + key + " must be a positive duration")
		}
	}
	return nil
}

// IsProduction reports whether AppEnv is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), EnvProduction)
}

// AccessTTL parses JWTAccessTTL. Returns 24h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 24*time.Hour)
}

// OTPCodeTTL parses OTPTTL. Returns 5m if unset or invalid.
func (c *Config) OTPCodeTTL() time.Duration {
	return parseDuration(c.OTPTTL, 5*time.Minute)
}

// OTPWindow parses OTPRateWindow. Returns 60s if unset or invalid.
func (c *Config) OTPWindow() time.Duration {
	return parseDuration(c.OTPRateWindow, time.Minute)
}

// SweepInterval parses OTPSweepInterval. Returns 10m if unset or invalid.
func (c *Config) SweepInterval() time.Duration {
	return parseDuration(c.OTPSweepInterval, 10*time.Minute)
}

// VerifyTimeout parses ProviderVerifyTimeout. Returns 5s if unset or invalid.
func (c *Config) VerifyTimeout() time.Duration {
	return parseDuration(c.ProviderVerifyTimeout, 5*time.Second)
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
