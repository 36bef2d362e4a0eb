// Package sms delivers OTP codes to phones.
package sms

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers a code to a phone. Delivery is best-effort.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogSender records the dispatch without contacting a gateway. The code itself is never logged.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender returns a Sender that only logs. Intended for local development.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOTP(ctx context.Context, phone, code string) error {
	s.logger.Info("sms: otp dispatch skipped, no gateway configured", zap.String("phone", MaskPhone(phone)))
	return nil
}

// MaskPhone keeps the country prefix and last three digits, e.g. "+84******333".
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return "***"
	}
	b := []byte(phone)
	for i := 3; i < len(b)-3; i++ {
		b[i] = '*'
	}
	return string(b)
}
