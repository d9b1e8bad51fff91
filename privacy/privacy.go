// Package privacy evaluates access policies for collection operations
// before they reach the database.
package privacy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/modernmen/collectiongen/schema"
)

// Decisions returned by rules. Wrapped decisions are recognized with
// errors.Is, so a rule may explain itself with Denyf and friends.
var (
	// Allow ends the evaluation and lets the operation through.
	Allow = errors.New("collectiongen/privacy: allow rule")
	// Deny ends the evaluation and rejects the operation.
	Deny = errors.New("collectiongen/privacy: deny rule")
	// Skip hands the decision to the next rule.
	Skip = errors.New("collectiongen/privacy: skip rule")
)

// Allowf wraps Allow with a formatted reason.
func Allowf(format string, a ...any) error { return decisionf(Allow, format, a) }

// Denyf wraps Deny with a formatted reason.
func Denyf(format string, a ...any) error { return decisionf(Deny, format, a) }

// Skipf wraps Skip with a formatted reason.
func Skipf(format string, a ...any) error { return decisionf(Skip, format, a) }

// decisionf keeps %w verbs of format, so the reason stays in the chain
// next to the decision.
func decisionf(decision error, format string, a []any) error {
	return fmt.Errorf(format+": %w", append(a[:len(a):len(a)], decision)...)
}

// Operation describes a collection operation under evaluation.
type Operation struct {
	// Collection is the collection name, e.g. "Appointment".
	Collection string
	Op         schema.Op
	// ID is the target record of get, update and delete.
	ID string
	// Data holds the payload of create and update. Rules must not
	// modify it.
	Data map[string]any
}

// Rule decides whether an operation is allowed.
type Rule interface {
	EvalAccess(context.Context, *Operation) error
}

// RuleFunc lets a plain function act as a Rule.
type RuleFunc func(context.Context, *Operation) error

func (f RuleFunc) EvalAccess(ctx context.Context, op *Operation) error { return f(ctx, op) }

// Policy is an ordered list of rules.
type Policy []Rule

// Eval evaluates the rules in order. Evaluation stops at the first Allow,
// which yields nil, or at the first Deny or other error, which is
// returned. A policy whose rules all skip allows the operation. A decision
// attached to ctx with DecisionContext overrides the rules.
func (p Policy) Eval(ctx context.Context, op *Operation) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	decision := p.EvalAccess(ctx, op)
	if errors.Is(decision, Skip) || errors.Is(decision, Allow) {
		return nil
	}
	return decision
}

// EvalAccess returns the first decision other than Skip, or Skip, which
// lets a policy nest inside another one.
func (p Policy) EvalAccess(ctx context.Context, op *Operation) error {
	for _, rule := range p {
		if decision := rule.EvalAccess(ctx, op); decision != nil && !errors.Is(decision, Skip) {
			return decision
		}
	}
	return Skip
}

// AlwaysAllowRule allows every operation.
func AlwaysAllowRule() Rule { return fixedDecision{Allow} }

// AlwaysDenyRule denies every operation.
func AlwaysDenyRule() Rule { return fixedDecision{Deny} }

// ContextRule decides from the context alone. A nil result skips.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(func(ctx context.Context, _ *Operation) error {
		return eval(ctx)
	})
}

// OnOperation applies rule to ops and skips every other operation.
func OnOperation(rule Rule, ops ...schema.Op) Rule {
	return RuleFunc(func(ctx context.Context, op *Operation) error {
		if slices.Contains(ops, op.Op) {
			return rule.EvalAccess(ctx, op)
		}
		return Skip
	})
}

// DenyOperationRule rejects ops outright.
func DenyOperationRule(ops ...schema.Op) Rule {
	rule := RuleFunc(func(_ context.Context, op *Operation) error {
		return Denyf("collectiongen/privacy: operation %s is not allowed on %s", op.Op, op.Collection)
	})
	return OnOperation(rule, ops...)
}

type decisionCtxKey struct{}

// DecisionContext attaches a decision that takes precedence over every
// policy evaluated with the returned context. Trusted callers, such as seed
// scripts, bypass access rules with it:
//
//	ctx = privacy.DecisionContext(ctx, privacy.Allow)
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext returns the decision attached with DecisionContext.
// An attached Allow is returned as nil.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct{ decision error }

func (f fixedDecision) EvalAccess(context.Context, *Operation) error { return f.decision }
