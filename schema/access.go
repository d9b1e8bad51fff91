package schema

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Op is a collection operation guarded by an access rule.
type Op string

// Collection operations.
const (
	OpCreate Op = "create"
	OpRead   Op = "read"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Ops returns the guarded operations in a stable order.
func Ops() []Op { return []Op{OpCreate, OpRead, OpUpdate, OpDelete} }

// AccessRule is a predicate over the requesting principal.
type AccessRule string

// Built-in access rules.
const (
	Public        AccessRule = "public"
	Authenticated AccessRule = "authenticated"
	AdminOnly     AccessRule = "adminOnly"
)

// AdminRole is the role that satisfies every rule.
const AdminRole = "admin"

const rolesPrefix = "roles:"

// Roles returns a rule that admits principals holding any of the roles.
func Roles(roles ...string) AccessRule {
	return AccessRule(rolesPrefix + strings.Join(roles, ","))
}

// Roles returns the role list of a "roles:" rule.
func (r AccessRule) Roles() []string {
	rest, ok := strings.CutPrefix(string(r), rolesPrefix)
	if !ok || rest == "" {
		return nil
	}
	roles := strings.Split(rest, ",")
	for i := range roles {
		roles[i] = strings.TrimSpace(roles[i])
	}
	return roles
}

// Validate reports whether the rule is well formed.
func (r AccessRule) Validate() error {
	switch r {
	case Public, Authenticated, AdminOnly:
		return nil
	}
	if !strings.HasPrefix(string(r), rolesPrefix) {
		return fmt.Errorf("unknown access rule %q", string(r))
	}
	roles := r.Roles()
	if len(roles) == 0 {
		return fmt.Errorf("access rule %q lists no roles", string(r))
	}
	if slices.Contains(roles, "") {
		return fmt.Errorf("access rule %q contains an empty role", string(r))
	}
	return nil
}

// Allows reports whether the principal may perform an operation guarded by r.
// A nil principal is anonymous.
func (r AccessRule) Allows(p *Principal) bool {
	if r == Public {
		return true
	}
	if p == nil {
		return false
	}
	if p.HasRole(AdminRole) {
		return true
	}
	switch r {
	case Authenticated:
		return true
	case AdminOnly:
		return false
	}
	return slices.ContainsFunc(r.Roles(), p.HasRole)
}

// Access holds one rule per operation. Empty rules fall back to the
// defaults returned by DefaultRule.
type Access struct {
	Create AccessRule `json:"create,omitempty" yaml:"create,omitempty"`
	Read   AccessRule `json:"read,omitempty" yaml:"read,omitempty"`
	Update AccessRule `json:"update,omitempty" yaml:"update,omitempty"`
	Delete AccessRule `json:"delete,omitempty" yaml:"delete,omitempty"`
}

// DefaultRule returns the rule applied to op when none is declared.
func DefaultRule(op Op) AccessRule {
	if op == OpDelete {
		return AdminOnly
	}
	return Authenticated
}

// Rule returns the effective rule for op.
func (a Access) Rule(op Op) AccessRule {
	var r AccessRule
	switch op {
	case OpCreate:
		r = a.Create
	case OpRead:
		r = a.Read
	case OpUpdate:
		r = a.Update
	case OpDelete:
		r = a.Delete
	}
	if r == "" {
		return DefaultRule(op)
	}
	return r
}

// Principal is the authenticated caller of a runtime operation.
type Principal struct {
	Subject string   `json:"sub"`
	Roles   []string `json:"roles,omitempty"`
}

// HasRole reports whether the principal holds the role.
func (p *Principal) HasRole(role string) bool {
	return p != nil && slices.Contains(p.Roles, role)
}

type principalKey struct{}

// NewContext returns a context carrying the principal.
func NewContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
