package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// violation classifies a failed statement.
type violation int

const (
	noViolation violation = iota
	uniqueViolation
	foreignKeyViolation
)

// SQLSTATE codes (postgres) and error numbers (mysql) of the violations.
var (
	sqlStates = map[string]violation{
		"23505": uniqueViolation,
		"23503": foreignKeyViolation,
	}
	mysqlNumbers = map[uint16]violation{
		1062: uniqueViolation,
		1451: foreignKeyViolation, // parent row still referenced
		1452: foreignKeyViolation, // child row without parent
	}
	// sqlite reports violations in the message only. The postgres and
	// mysql messages cover errors that lost their driver type on the way,
	// such as the ones of database/sql proxies.
	violationMessages = []struct {
		text string
		v    violation
	}{
		{"UNIQUE constraint failed", uniqueViolation},
		{"violates unique constraint", uniqueViolation},
		{"Error 1062", uniqueViolation},
		{"Duplicate entry", uniqueViolation},
		{"FOREIGN KEY constraint failed", foreignKeyViolation},
		{"violates foreign key constraint", foreignKeyViolation},
		{"Error 1451", foreignKeyViolation},
		{"Error 1452", foreignKeyViolation},
	}
)

func classify(err error) violation {
	if err == nil {
		return noViolation
	}
	var (
		pqErr *pq.Error
		pgErr *pgconn.PgError
		myErr *mysql.MySQLError
	)
	switch {
	case errors.As(err, &pqErr):
		return sqlStates[string(pqErr.Code)]
	case errors.As(err, &pgErr):
		return sqlStates[pgErr.Code]
	case errors.As(err, &myErr):
		return mysqlNumbers[myErr.Number]
	}
	msg := err.Error()
	for _, m := range violationMessages {
		if strings.Contains(msg, m.text) {
			return m.v
		}
	}
	return noViolation
}

// IsConstraintError reports whether err is a unique or foreign-key
// violation reported by the database.
func IsConstraintError(err error) bool { return classify(err) != noViolation }

// IsUniqueConstraintError reports whether err is a unique index violation.
func IsUniqueConstraintError(err error) bool { return classify(err) == uniqueViolation }

// IsForeignKeyConstraintError reports whether err is a foreign-key violation.
func IsForeignKeyConstraintError(err error) bool { return classify(err) == foreignKeyViolation }
