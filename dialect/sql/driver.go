package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/modernmen/collectiongen/dialect"
)

// Driver runs statements on a database/sql handle for one SQL dialect.
type Driver struct {
	Conn
	db      *sql.DB
	dialect string
}

var _ dialect.Driver = (*Driver)(nil)

// Open opens a database/sql handle for a registered driver. The dialect
// follows from the driver name, so "pgx" yields Postgres.
func Open(driverName, dsn string) (*Driver, error) {
	name, err := dialect.Resolve(driverName)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return OpenDB(name, db), nil
}

// OpenDB wraps an open handle.
func OpenDB(dialectName string, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{db}, db: db, dialect: dialectName}
}

// DB returns the wrapped handle.
func (d *Driver) DB() *sql.DB { return d.db }

func (d *Driver) Dialect() string { return d.dialect }

func (d *Driver) Close() error { return d.db.Close() }

// Tx begins a transaction with the default isolation level.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx begins a transaction with opts.
func (d *Driver) BeginTx(ctx context.Context, opts *sql.TxOptions) (dialect.Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin: %w", err)
	}
	return &Tx{Conn: Conn{tx}, Tx: tx}, nil
}

// Tx is a running transaction.
type Tx struct {
	Conn
	driver.Tx
}

// Conn adapts a *sql.DB or *sql.Tx to dialect.ExecQuerier.
type Conn struct {
	ExecQuerier
}

// ExecQuerier is the subset of *sql.DB and *sql.Tx used by Conn.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Exec runs a statement. v must be nil or a *sql.Result.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, err := argList(args)
	if err != nil {
		return err
	}
	res, ok := v.(*sql.Result)
	if v != nil && !ok {
		return fmt.Errorf("dialect/sql: exec into %T, want *sql.Result", v)
	}
	r, err := c.ExecContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	if res != nil {
		*res = r
	}
	return nil
}

// Query runs a query. v must be a *Rows, which the caller closes.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	rows, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: query into %T, want *Rows", v)
	}
	argv, err := argList(args)
	if err != nil {
		return err
	}
	r, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	rows.Rows = r
	return nil
}

func argList(args any) ([]any, error) {
	switch args := args.(type) {
	case nil:
		return nil, nil
	case []any:
		return args, nil
	default:
		return nil, fmt.Errorf("dialect/sql: args of type %T, want []any", args)
	}
}

// Rows holds the result set of Conn.Query.
type Rows struct {
	*sql.Rows
}

// Exec runs a built statement.
func Exec(ctx context.Context, ex dialect.ExecQuerier, q Querier) (sql.Result, error) {
	stmt, args := q.Query()
	var res sql.Result
	if err := ex.Exec(ctx, stmt, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// ScanMaps runs a built query and returns one map per row, keyed by
// column name. Byte slices are returned as strings.
func ScanMaps(ctx context.Context, ex dialect.ExecQuerier, q Querier) ([]map[string]any, error) {
	rows, err := queryRows(ctx, ex, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
			} else {
				rec[col] = values[i]
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ScanInt runs a built query returning a single integer, such as COUNT(*).
func ScanInt(ctx context.Context, ex dialect.ExecQuerier, q Querier) (int, error) {
	rows, err := queryRows(ctx, ex, q)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("dialect/sql: query returned no rows")
	}
	var n int
	if err := rows.Scan(&n); err != nil {
		return 0, err
	}
	return n, rows.Err()
}

func queryRows(ctx context.Context, ex dialect.ExecQuerier, q Querier) (*Rows, error) {
	stmt, args := q.Query()
	rows := &Rows{}
	if err := ex.Query(ctx, stmt, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}
