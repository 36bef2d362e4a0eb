package domain

import (
	"strings"
	"time"
)

// Credential maps an identity at a provider to an internal user.
// (Provider, ProviderUserID) is globally unique; a user has at most one credential per provider.
type Credential struct {
	ID             string
	UserID         string
	Provider       Provider
	ProviderUserID string
	PasswordHash   string // set only for ProviderLocal
	CreatedAt      time.Time
}

// Provider names the authority that vouches for a credential.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderPhone  Provider = "phone"
)

// ParseProvider maps a case-insensitive name to a Provider.
func ParseProvider(s string) (Provider, bool) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderLocal, ProviderGoogle, ProviderPhone:
		return p, true
	}
	return "", false
}

// External reports whether the provider is verified by a third party token.
func (p Provider) External() bool {
	return p == ProviderGoogle
}
