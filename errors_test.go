package collectiongen_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modernmen/collectiongen"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := collectiongen.NewNotFoundError("appointments", nil)
		assert.Equal(t, "collectiongen: appointments not found", err.Error())

		err = collectiongen.NewNotFoundError("appointments", "a1")
		assert.Equal(t, "collectiongen: appointments not found (id=a1)", err.Error())
		assert.Equal(t, "a1", err.ID())
		assert.Equal(t, "appointments", err.Collection())
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := collectiongen.NewNotFoundError("customers", 1)
		assert.True(t, errors.Is(err, collectiongen.ErrNotFound))
		assert.True(t, collectiongen.IsNotFound(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, collectiongen.IsNotFound(collectiongen.ErrNotFound))
		assert.False(t, collectiongen.IsNotFound(errors.New("other error")))
		assert.False(t, collectiongen.IsNotFound(nil))
	})
}

func TestConstraintError(t *testing.T) {
	err := collectiongen.NewConstraintError("title", "length %d exceeds max %d", 12, 10)
	assert.Equal(t, `collectiongen: constraint failed for field "title": length 12 exceeds max 10`, err.Error())
	assert.True(t, errors.Is(err, collectiongen.ErrConstraint))
	assert.True(t, collectiongen.IsConstraintError(fmt.Errorf("create: %w", err)))
	assert.False(t, collectiongen.IsConstraintError(nil))

	cause := errors.New("boom")
	wrapped := &collectiongen.ConstraintError{Field: "date", Err: cause}
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, `collectiongen: constraint failed for field "date": boom`, wrapped.Error())
}

func TestAccessError(t *testing.T) {
	err := collectiongen.NewAccessError("appointments", "delete", "adminOnly", false)
	assert.Equal(t, "collectiongen: access denied for delete on appointments (rule: adminOnly)", err.Error())
	assert.True(t, errors.Is(err, collectiongen.ErrAccessDenied))
	assert.True(t, collectiongen.IsAccessError(err))
	assert.False(t, collectiongen.IsAccessError(errors.New("x")))
}

func TestQueryAndMutationError(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("QueryError", func(t *testing.T) {
		err := collectiongen.NewQueryError("appointments", "list", cause)
		assert.Equal(t, "collectiongen: querying appointments (list): connection reset", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.True(t, collectiongen.IsQueryError(err))

		err = collectiongen.NewQueryError("appointments", "", cause)
		assert.Equal(t, "collectiongen: querying appointments: connection reset", err.Error())
	})

	t.Run("MutationError", func(t *testing.T) {
		err := collectiongen.NewMutationError("appointments", "create", cause)
		assert.Equal(t, "collectiongen: create appointments: connection reset", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.True(t, collectiongen.IsMutationError(err))
		assert.False(t, collectiongen.IsMutationError(nil))
	})
}

func TestCacheKey(t *testing.T) {
	k := collectiongen.CacheKey{Collection: "appointments", Generation: 3, Query: "abc"}
	assert.Equal(t, "appointments:3:abc", k.String())
	assert.Equal(t, "appointments:gen", collectiongen.GenerationKey("appointments"))
}
