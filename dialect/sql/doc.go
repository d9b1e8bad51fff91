// Package sql builds and executes the SQL statements behind the generated
// collection services.
//
// # Builders
//
//   - Builder: low-level writer with identifier quoting and placeholders
//   - Selector: SELECT with predicates, ordering and pagination
//   - InsertBuilder: INSERT with RETURNING where the dialect allows it
//   - UpdateBuilder: UPDATE with SET and WHERE clauses
//   - DeleteBuilder: DELETE with WHERE predicates
//
// Placeholders follow the dialect: $1, $2 on Postgres and ? elsewhere.
//
//	sql.Dialect(dialect.Postgres).Select().From("appointments").
//	    Where(sql.EQ("status", "booked")).
//	    OrderBy(sql.Asc("date")).
//	    Limit(10).Offset(10)
//
// # Query options
//
// Translate converts normalized query.Options to a Selector, so every filter
// operator has exactly one SQL rendering.
//
// # Drivers
//
// Driver wraps a database/sql handle and implements dialect.Driver.
// StatsDriver decorates any dialect.Driver with counters and zap logging
// of slow or failed statements.
package sql
