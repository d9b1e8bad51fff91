package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernmen/collectiongen/dialect"
)

func TestSelector(t *testing.T) {
	tests := []struct {
		name     string
		input    Querier
		wantStmt string
		wantArgs []any
	}{
		{
			name:     "all columns",
			input:    Dialect(dialect.Postgres).Select().From("appointments"),
			wantStmt: `SELECT * FROM "appointments"`,
		},
		{
			name:     "columns mysql",
			input:    Dialect(dialect.MySQL).Select("id", "customer").From("appointments"),
			wantStmt: "SELECT `id`, `customer` FROM `appointments`",
		},
		{
			name: "predicates are anded",
			input: Dialect(dialect.Postgres).Select().From("appointments").
				Where(EQ("status", "booked")).
				Where(GTE("price", 10)),
			wantStmt: `SELECT * FROM "appointments" WHERE "status" = $1 AND "price" >= $2`,
			wantArgs: []any{"booked", 10},
		},
		{
			name: "or inside and",
			input: Dialect(dialect.SQLite).Select().From("appointments").
				Where(EQ("status", "booked")).
				Where(Or(LT("price", 5), IsNull("price"))),
			wantStmt: `SELECT * FROM "appointments" WHERE "status" = ? AND ("price" < ? OR "price" IS NULL)`,
			wantArgs: []any{"booked", 5},
		},
		{
			name: "not",
			input: Dialect(dialect.Postgres).Select().From("appointments").
				Where(Not(In("status", "cancelled", "noShow"))),
			wantStmt: `SELECT * FROM "appointments" WHERE NOT ("status" IN ($1, $2))`,
			wantArgs: []any{"cancelled", "noShow"},
		},
		{
			name:     "empty in matches nothing",
			input:    Dialect(dialect.Postgres).Select().From("appointments").Where(In("status")),
			wantStmt: `SELECT * FROM "appointments" WHERE 1 = 0`,
		},
		{
			name:     "empty not in matches everything",
			input:    Dialect(dialect.Postgres).Select().From("appointments").Where(NotIn("status")),
			wantStmt: `SELECT * FROM "appointments" WHERE 1 = 1`,
		},
		{
			name:     "between",
			input:    Dialect(dialect.MySQL).Select().From("appointments").Where(Between("price", 1, 9)),
			wantStmt: "SELECT * FROM `appointments` WHERE `price` BETWEEN ? AND ?",
			wantArgs: []any{1, 9},
		},
		{
			name: "order and pagination",
			input: Dialect(dialect.Postgres).Select().From("appointments").
				OrderBy(Desc("date"), Asc("customer")).
				Limit(10).
				Offset(20),
			wantStmt: `SELECT * FROM "appointments" ORDER BY "date" DESC, "customer" ASC LIMIT 10 OFFSET 20`,
		},
		{
			name: "count drops order and pagination",
			input: Dialect(dialect.Postgres).Select().From("appointments").
				Where(EQ("status", "booked")).
				OrderBy(Asc("date")).
				Limit(10).
				Count(),
			wantStmt: `SELECT COUNT(*) FROM "appointments" WHERE "status" = $1`,
			wantArgs: []any{"booked"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, args := tt.input.Query()
			assert.Equal(t, tt.wantStmt, stmt)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestLike(t *testing.T) {
	t.Run("contains fold postgres", func(t *testing.T) {
		stmt, args := ContainsFold("notes", "Urgent").Query(dialect.Postgres)
		assert.Equal(t, `"notes" ILIKE $1`, stmt)
		assert.Equal(t, []any{"%Urgent%"}, args)
	})
	t.Run("contains fold mysql", func(t *testing.T) {
		stmt, args := ContainsFold("notes", "Urgent").Query(dialect.MySQL)
		assert.Equal(t, "LOWER(`notes`) LIKE ?", stmt)
		assert.Equal(t, []any{"%urgent%"}, args)
	})
	t.Run("sqlite escape clause", func(t *testing.T) {
		stmt, args := HasPrefix("code", "50%_off").Query(dialect.SQLite)
		assert.Equal(t, `"code" LIKE ? ESCAPE '\'`, stmt)
		assert.Equal(t, []any{`50\%\_off%`}, args)
	})
	t.Run("suffix", func(t *testing.T) {
		stmt, args := HasSuffix("email", "@example.com").Query(dialect.Postgres)
		assert.Equal(t, `"email" LIKE $1`, stmt)
		assert.Equal(t, []any{"%@example.com"}, args)
	})
	t.Run("case sensitive contains", func(t *testing.T) {
		stmt, args := Contains("notes", `a\b`).Query(dialect.Postgres)
		assert.Equal(t, `"notes" LIKE $1`, stmt)
		assert.Equal(t, []any{`%a\\b%`}, args)
	})
}

func TestMutations(t *testing.T) {
	t.Run("insert returning", func(t *testing.T) {
		stmt, args := Dialect(dialect.Postgres).Insert("appointments").
			Columns("id", "customer").
			Values("a1", "Ada").
			Returning("id").
			Query()
		assert.Equal(t, `INSERT INTO "appointments" ("id", "customer") VALUES ($1, $2) RETURNING "id"`, stmt)
		assert.Equal(t, []any{"a1", "Ada"}, args)
	})
	t.Run("insert mysql skips returning", func(t *testing.T) {
		stmt, _ := Dialect(dialect.MySQL).Insert("appointments").
			Columns("id").
			Values("a1").
			Returning("id").
			Query()
		assert.Equal(t, "INSERT INTO `appointments` (`id`) VALUES (?)", stmt)
	})
	t.Run("insert row mismatch", func(t *testing.T) {
		err := Dialect(dialect.Postgres).Insert("appointments").
			Columns("id", "customer").
			Values("a1").
			Err()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has 1 values for 2 columns")
	})
	t.Run("update", func(t *testing.T) {
		u := Dialect(dialect.Postgres).Update("appointments").
			Set("status", "cancelled").
			Set("updatedAt", "2024-01-01T00:00:00Z").
			Where(EQ("id", "a1"))
		stmt, args := u.Query()
		assert.Equal(t, `UPDATE "appointments" SET "status" = $1, "updatedAt" = $2 WHERE "id" = $3`, stmt)
		assert.Equal(t, []any{"cancelled", "2024-01-01T00:00:00Z", "a1"}, args)
		assert.False(t, u.Empty())
		assert.NoError(t, u.Err())
	})
	t.Run("empty update", func(t *testing.T) {
		u := Dialect(dialect.Postgres).Update("appointments")
		assert.True(t, u.Empty())
		assert.Error(t, u.Err())
	})
	t.Run("delete", func(t *testing.T) {
		stmt, args := Dialect(dialect.SQLite).Delete("appointments").Where(EQ("id", "a1")).Query()
		assert.Equal(t, `DELETE FROM "appointments" WHERE "id" = ?`, stmt)
		assert.Equal(t, []any{"a1"}, args)
	})
}

func TestInvalidIdentifier(t *testing.T) {
	s := Dialect(dialect.Postgres).Select().From("appointments").Where(EQ(`status"; DROP TABLE x; --`, 1))
	err := s.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid identifier")

	assert.Error(t, Dialect(dialect.Postgres).Select().Err(), "missing table")
}

func TestClone(t *testing.T) {
	base := Dialect(dialect.Postgres).Select().From("appointments").Where(EQ("status", "booked"))
	c := base.Clone().Where(EQ("customer", "Ada"))
	stmt, _ := base.Query()
	assert.Equal(t, `SELECT * FROM "appointments" WHERE "status" = $1`, stmt)
	stmt, _ = c.Query()
	assert.Equal(t, `SELECT * FROM "appointments" WHERE "status" = $1 AND "customer" = $2`, stmt)
}
