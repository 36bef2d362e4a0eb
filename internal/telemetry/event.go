// Package telemetry carries auth events to OTel logs and, when configured, to Kafka.
package telemetry

import "time"

// Auth event types.
const (
	EventRegistered       = "auth.registered"
	EventLogin            = "auth.login"
	EventLoginFailed      = "auth.login_failed"
	EventProviderLogin    = "auth.provider_login"
	EventPhoneLogin       = "auth.phone_login"
	EventProviderLinked   = "auth.provider_linked"
	EventProviderUnlinked = "auth.provider_unlinked"
	EventPasswordChanged  = "auth.password_changed"
	EventOTPRequested     = "otp.requested"
	EventOTPRateLimited   = "otp.rate_limited"
	EventOTPVerified      = "otp.verified"
	EventOTPSwept         = "otp.swept"
)

// Event is a single auth event. Attributes never carry secrets such as codes or passwords.
type Event struct {
	Type       string            `json:"type"`
	UserID     string            `json:"user_id,omitempty"`
	Source     string            `json:"source"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewEvent returns an event stamped with the current UTC time.
func NewEvent(eventType, userID, source string, attrs map[string]string) *Event {
	return &Event{
		Type:       eventType,
		UserID:     userID,
		Source:     source,
		Attributes: attrs,
		CreatedAt:  time.Now().UTC(),
	}
}
