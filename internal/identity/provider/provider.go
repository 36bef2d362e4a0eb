// Package provider verifies tokens issued by external identity providers.
package provider

import (
	"context"
	"errors"

	"bookstore/backend/internal/identity/domain"
)

// ErrUnsupported is returned by Registry.Get for providers without a configured verifier.
var ErrUnsupported = errors.New("provider: unsupported")

// ExternalIdentity is the identity a provider vouched for.
type ExternalIdentity struct {
	Provider       domain.Provider
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
}

// Verifier checks a provider token and returns the identity it asserts.
// Any returned error means the token must not be trusted.
type Verifier interface {
	Verify(ctx context.Context, token string) (*ExternalIdentity, error)
}

// Registry resolves a provider to its verifier.
type Registry struct {
	verifiers map[domain.Provider]Verifier
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{verifiers: make(map[domain.Provider]Verifier)}
}

// Register binds v to p. A nil v is ignored.
func (r *Registry) Register(p domain.Provider, v Verifier) *Registry {
	if v != nil {
		r.verifiers[p] = v
	}
	return r
}

// Get returns the verifier for p or ErrUnsupported.
func (r *Registry) Get(p domain.Provider) (Verifier, error) {
	if r == nil {
		return nil, ErrUnsupported
	}
	v, ok := r.verifiers[p]
	if !ok {
		return nil, ErrUnsupported
	}
	return v, nil
}
