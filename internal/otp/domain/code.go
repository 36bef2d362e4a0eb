package domain

import "time"

// OneTimeCode is a single OTP challenge for a phone. CodeHash is the hex SHA-256 of the code;
// Code holds the plaintext only on the value returned at issuance and is never persisted.
type OneTimeCode struct {
	ID        string
	Phone     string
	Code      string
	CodeHash  string
	ExpiredAt time.Time
	Verified  bool
	CreatedAt time.Time
}

// IsExpired reports whether now is past the code's expiry. The expiry instant itself is still valid.
func (c *OneTimeCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiredAt)
}

// IsValid reports whether the code can still be redeemed at now.
func (c *OneTimeCode) IsValid(now time.Time) bool {
	return !c.Verified && !c.IsExpired(now)
}
