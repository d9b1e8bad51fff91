package privacy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernmen/collectiongen"
	"github.com/modernmen/collectiongen/privacy"
	"github.com/modernmen/collectiongen/schema"
)

func TestDecisionErrors(t *testing.T) {
	tests := []struct {
		name     string
		decision error
		want     error
	}{
		{"allow", privacy.Allow, privacy.Allow},
		{"deny", privacy.Deny, privacy.Deny},
		{"skip", privacy.Skip, privacy.Skip},
		{"allowf", privacy.Allowf("owner %s", "u1"), privacy.Allow},
		{"denyf", privacy.Denyf("blocked %d", 3), privacy.Deny},
		{"skipf", privacy.Skipf("no data"), privacy.Skip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.decision, tt.want))
		})
	}
	assert.Equal(t, "blocked 3: collectiongen/privacy: deny rule", privacy.Denyf("blocked %d", 3).Error())
}

func TestDecisionWrapsReason(t *testing.T) {
	reason := collectiongen.NewAccessError("Appointment", "delete", "adminOnly", true)
	err := privacy.Denyf("%w", reason)
	assert.ErrorIs(t, err, privacy.Deny)
	assert.ErrorIs(t, err, collectiongen.ErrAccessDenied)
	var ae *collectiongen.AccessError
	require.ErrorAs(t, err, &ae)
	assert.Same(t, reason, ae)
	assert.NotContains(t, err.Error(), "%!w")
	assert.Equal(t, "collectiongen: access denied for delete on Appointment (rule: adminOnly): collectiongen/privacy: deny rule", err.Error())

	t.Run("through a policy", func(t *testing.T) {
		op := &privacy.Operation{Collection: "Appointment", Op: schema.OpDelete, ID: "a1"}
		err := privacy.Policy{privacy.AccessRule("adminOnly")}.Eval(context.Background(), op)
		require.ErrorAs(t, err, &ae)
		assert.True(t, ae.Anonymous)
		assert.Equal(t, "adminOnly", ae.Rule)
		assert.True(t, collectiongen.IsAccessError(err))
	})
}

func TestPolicyEval(t *testing.T) {
	ctx := context.Background()
	op := &privacy.Operation{Collection: "Appointment", Op: schema.OpUpdate, ID: "a1"}

	t.Run("empty policy allows", func(t *testing.T) {
		assert.NoError(t, privacy.Policy{}.Eval(ctx, op))
	})

	t.Run("first decision wins", func(t *testing.T) {
		p := privacy.Policy{privacy.ContextRule(func(context.Context) error { return nil }), privacy.AlwaysAllowRule(), privacy.AlwaysDenyRule()}
		assert.NoError(t, p.Eval(ctx, op))

		p = privacy.Policy{privacy.AlwaysDenyRule(), privacy.AlwaysAllowRule()}
		assert.ErrorIs(t, p.Eval(ctx, op), privacy.Deny)
	})

	t.Run("other errors are returned", func(t *testing.T) {
		boom := errors.New("boom")
		p := privacy.Policy{privacy.RuleFunc(func(context.Context, *privacy.Operation) error { return boom })}
		assert.ErrorIs(t, p.Eval(ctx, op), boom)
	})

	t.Run("nested policies skip when undecided", func(t *testing.T) {
		inner := privacy.Policy{privacy.ContextRule(func(context.Context) error { return privacy.Skip })}
		assert.ErrorIs(t, inner.EvalAccess(ctx, op), privacy.Skip)
		p := privacy.Policy{inner, privacy.AlwaysDenyRule()}
		assert.ErrorIs(t, p.Eval(ctx, op), privacy.Deny)
	})

	t.Run("context decision overrides rules", func(t *testing.T) {
		p := privacy.Policy{privacy.AlwaysDenyRule()}
		assert.NoError(t, p.Eval(privacy.DecisionContext(ctx, privacy.Allow), op))

		p = privacy.Policy{privacy.AlwaysAllowRule()}
		assert.ErrorIs(t, p.Eval(privacy.DecisionContext(ctx, privacy.Denyf("maintenance")), op), privacy.Deny)

		assert.Equal(t, ctx, privacy.DecisionContext(ctx, privacy.Skip))
		assert.Equal(t, ctx, privacy.DecisionContext(ctx, nil))
		_, ok := privacy.DecisionFromContext(ctx)
		assert.False(t, ok)
	})
}

func TestOnOperation(t *testing.T) {
	ctx := context.Background()
	rule := privacy.DenyOperationRule(schema.OpDelete)

	err := rule.EvalAccess(ctx, &privacy.Operation{Collection: "Service", Op: schema.OpDelete})
	require.ErrorIs(t, err, privacy.Deny)
	assert.Contains(t, err.Error(), "operation delete is not allowed on Service")

	err = rule.EvalAccess(ctx, &privacy.Operation{Collection: "Service", Op: schema.OpRead})
	assert.ErrorIs(t, err, privacy.Skip)
}
