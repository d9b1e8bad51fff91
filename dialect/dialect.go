package dialect

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
)

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Dialects returns the SQL dialects in a stable order.
func Dialects() []string { return []string{Postgres, MySQL, SQLite} }

// Resolve maps a database/sql driver name to its dialect:
// "pgx" is Postgres, "sqlite3" is SQLite.
func Resolve(driverName string) (string, error) {
	switch name := strings.ToLower(driverName); {
	case name == Postgres, name == "pgx", name == "postgresql":
		return Postgres, nil
	case name == MySQL, name == "mariadb":
		return MySQL, nil
	case name == SQLite, strings.HasPrefix(name, "sqlite"):
		return SQLite, nil
	default:
		return "", fmt.Errorf("dialect: unsupported driver %q", driverName)
	}
}

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. v is nil or
	// a *sql.Result receiving the result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows into v, a *sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for store clients.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	driver.Tx
}
