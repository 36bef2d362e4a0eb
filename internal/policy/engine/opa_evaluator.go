package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

const allowQuery = "data.bookstore.authz.allow"

// DefaultRegoPolicy grants admins every action and customers only the actions they own.
// Administrative actions use the "admin." or "otp." prefixes.
const DefaultRegoPolicy = `package bookstore.authz

default allow = false

allow if {
	input.role == "admin"
}

allow if {
	input.role == "customer"
	not startswith(input.action, "admin.")
	not startswith(input.action, "otp.")
}
`

// OPAEvaluator evaluates a Rego policy prepared once at construction.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy (DefaultRegoPolicy when empty). The policy must define
// data.bookstore.authz.allow.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultRegoPolicy
	}
	q, err := rego.New(
		rego.Query(allowQuery),
		rego.Module("authz.rego", policy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// Allow evaluates the policy. Any evaluation failure or non-boolean result denies.
func (e *OPAEvaluator) Allow(ctx context.Context, in Input) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"user_id": in.UserID,
		"role":    in.Role,
		"action":  in.Action,
	}))
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}

// HealthCheck verifies the prepared policy still evaluates.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	rs, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{"role": "", "action": ""}))
	if err != nil {
		return fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}
