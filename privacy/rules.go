package privacy

import (
	"context"
	"fmt"

	"github.com/modernmen/collectiongen"
	"github.com/modernmen/collectiongen/schema"
)

// DenyIfAnonymous returns a rule that denies access if no principal is
// present in the context.
func DenyIfAnonymous() Rule {
	return RuleFunc(func(ctx context.Context, op *Operation) error {
		if schema.FromContext(ctx) == nil {
			return Denyf("%w", collectiongen.NewAccessError(op.Collection, string(op.Op), "", true))
		}
		return Skip
	})
}

// HasRole returns a rule that allows access if the principal has the role.
// It skips otherwise.
func HasRole(role string) Rule {
	return HasAnyRole(role)
}

// HasAnyRole returns a rule that allows access if the principal has any of
// the roles. It skips otherwise.
//
//	privacy.Policy{
//	    privacy.DenyIfAnonymous(),
//	    privacy.HasAnyRole("admin", "manager"),
//	    privacy.AlwaysDenyRule(),
//	}
func HasAnyRole(roles ...string) Rule {
	return ContextRule(func(ctx context.Context) error {
		p := schema.FromContext(ctx)
		for _, role := range roles {
			if p.HasRole(role) {
				return Allow
			}
		}
		return Skip
	})
}

// IsOwner returns a rule that allows create and update operations whose
// payload sets field to the principal subject. It skips otherwise.
func IsOwner(field string) Rule {
	return RuleFunc(func(ctx context.Context, op *Operation) error {
		p := schema.FromContext(ctx)
		if p == nil || op.Data == nil {
			return Skip
		}
		v, ok := op.Data[field]
		if !ok {
			return Skip
		}
		if fmt.Sprint(v) == p.Subject {
			return Allow
		}
		return Skip
	})
}

// AccessRule returns a rule enforcing a declared collection access rule.
// It allows or denies and never skips; a denial wraps a
// *collectiongen.AccessError.
func AccessRule(rule schema.AccessRule) Rule {
	return RuleFunc(func(ctx context.Context, op *Operation) error {
		p := schema.FromContext(ctx)
		if rule.Allows(p) {
			return Allow
		}
		return Denyf("%w", collectiongen.NewAccessError(op.Collection, string(op.Op), string(rule), p == nil))
	})
}

// CollectionPolicy returns the policy of a collection: the extra rules
// first, then the declared rule of the operation.
func CollectionPolicy(access schema.Access, extra ...Rule) Policy {
	p := make(Policy, 0, len(extra)+1)
	p = append(p, extra...)
	return append(p, RuleFunc(func(ctx context.Context, op *Operation) error {
		return AccessRule(access.Rule(op.Op)).EvalAccess(ctx, op)
	}))
}
