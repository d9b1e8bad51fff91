// Package query defines the store-independent query options accepted by
// generated services: conjunctive filter predicates, an ordered sort and
// page-based pagination.
//
// Options are translated into native query handles by the dialect
// packages (dialect/sql, dialect/mongo). Translation is pure: it validates
// the options and builds the handle, it never touches a store.
//
//	opts := query.New().
//	    Where("status", query.Eq, "booked").
//	    OrderBy("date", query.Asc).
//	    Page(2).
//	    Build()
package query
