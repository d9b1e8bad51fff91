// Package dialect holds the dialect names of the SQL backends and the
// Driver contract that runtime/store runs statements through.
//
// Driver names known to database/sql map onto a dialect with Resolve:
//
//	d, _ := dialect.Resolve("pgx") // dialect.Postgres
//
// List query options are translated per backend by the sub-packages:
// dialect/sql renders SELECT statements for Postgres, MySQL and SQLite and
// wraps database/sql handles as Drivers, while dialect/mongo renders the
// same options as bson filters and find options.
package dialect
