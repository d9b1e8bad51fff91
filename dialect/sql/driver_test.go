package sql

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/modernmen/collectiongen/dialect"
)

func newMock(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return OpenDB(dialect.Postgres, db), mock
}

func TestDriver(t *testing.T) {
	ctx := context.Background()

	t.Run("scan maps", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectQuery(`SELECT * FROM "appointments" WHERE "status" = $1`).
			WithArgs("booked").
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer"}).
				AddRow("a1", []byte("Ada")).
				AddRow("a2", "Grace"))
		recs, err := ScanMaps(ctx, drv, Dialect(dialect.Postgres).Select().From("appointments").Where(EQ("status", "booked")))
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{
			{"id": "a1", "customer": "Ada"},
			{"id": "a2", "customer": "Grace"},
		}, recs)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scan int", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectQuery(`SELECT COUNT(*) FROM "appointments"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
		n, err := ScanInt(ctx, drv, Dialect(dialect.Postgres).Select().From("appointments").Count())
		require.NoError(t, err)
		assert.Equal(t, 42, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec result", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectExec(`DELETE FROM "appointments" WHERE "id" = $1`).
			WithArgs("a1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		res, err := Exec(ctx, drv, Dialect(dialect.Postgres).Delete("appointments").Where(EQ("id", "a1")))
		require.NoError(t, err)
		affected, err := res.RowsAffected()
		require.NoError(t, err)
		assert.EqualValues(t, 1, affected)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid args", func(t *testing.T) {
		drv, _ := newMock(t)
		err := drv.Exec(ctx, "SELECT 1", "nope", nil)
		assert.Error(t, err)
		err = drv.Query(ctx, "SELECT 1", []any{}, new(int))
		assert.Error(t, err)
	})

	t.Run("transaction", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "appointments" SET "status" = $1 WHERE "id" = $2`).
			WithArgs("cancelled", "a1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		_, err = Exec(ctx, tx, Dialect(dialect.Postgres).Update("appointments").Set("status", "cancelled").Where(EQ("id", "a1")))
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "appointments"`).WillReturnError(errors.New("boom"))
		mock.ExpectRollback()
		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		_, err = Exec(ctx, tx, Dialect(dialect.Postgres).Delete("appointments"))
		require.Error(t, err)
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("dialect", func(t *testing.T) {
		drv, _ := newMock(t)
		assert.Equal(t, dialect.Postgres, drv.Dialect())
	})
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "")
	assert.Error(t, err)
}

func TestStatsDriver(t *testing.T) {
	ctx := context.Background()
	drv, mock := newMock(t)
	core, logs := observer.New(zapcore.DebugLevel)
	stats := NewStatsDriver(drv, WithSlowThreshold(time.Hour), WithLogger(zap.New(core)))

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM "appointments"`).WillReturnError(errors.New("boom"))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "appointments"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	rows := &Rows{}
	require.NoError(t, stats.Query(ctx, "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())
	require.Error(t, stats.Exec(ctx, `DELETE FROM "appointments"`, []any{}, nil))

	tx, err := stats.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, `DELETE FROM "appointments"`, []any{}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	snap := stats.QueryStats().Stats()
	assert.EqualValues(t, 1, snap.TotalQueries)
	assert.EqualValues(t, 2, snap.TotalExecs)
	assert.EqualValues(t, 1, snap.Errors)
	assert.EqualValues(t, 0, snap.SlowQueries)
	assert.Contains(t, snap.String(), "queries=1 execs=2")
	assert.Equal(t, 1, logs.FilterMessage("statement failed").Len())
	assert.Equal(t, 2, logs.FilterMessage("statement").Len())
}

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		unique bool
		fk     bool
	}{
		{name: "nil", err: nil},
		{name: "pq unique", err: &pq.Error{Code: "23505"}, unique: true},
		{name: "pgx fk wrapped", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), fk: true},
		{name: "pgx other", err: &pgconn.PgError{Code: "42P01"}},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062}, unique: true},
		{name: "mysql fk", err: &mysql.MySQLError{Number: 1452}, fk: true},
		{name: "sqlite unique", err: errors.New("UNIQUE constraint failed: appointments.code"), unique: true},
		{name: "sqlite fk", err: errors.New("FOREIGN KEY constraint failed"), fk: true},
		{name: "postgres unique message", err: errors.New(`pq: duplicate key value violates unique constraint "appointments_pkey"`), unique: true},
		{name: "postgres fk message", err: fmt.Errorf("exec: %w", errors.New(`insert or update on table "appointments" violates foreign key constraint "appointments_service_fkey"`)), fk: true},
		{name: "mysql duplicate message", err: errors.New("Error 1062 (23000): Duplicate entry 'a1' for key 'PRIMARY'"), unique: true},
		{name: "mysql fk message", err: errors.New("Error 1451 (23000): Cannot delete or update a parent row"), fk: true},
		{name: "other", err: errors.New("connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.fk, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.fk, IsConstraintError(tt.err))
		})
	}
}
