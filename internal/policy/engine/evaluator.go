// Package engine decides route-level access from the caller's role using OPA Rego.
package engine

import "context"

// Input is the request context a policy decides on.
type Input struct {
	UserID string
	Role   string
	// Action names the guarded operation, e.g. "otp.sweep".
	Action string
}

// Evaluator decides whether Input is allowed.
type Evaluator interface {
	Allow(ctx context.Context, in Input) (bool, error)
}
