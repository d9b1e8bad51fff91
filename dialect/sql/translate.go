package sql

import (
	"fmt"
	"slices"

	"github.com/modernmen/collectiongen/dialect"
	"github.com/modernmen/collectiongen/query"
)

// Translate builds the SELECT statement for one page of table rows matching
// opts. It validates and normalizes the options first; an unknown operator
// fails with *query.UnsupportedOperatorError before any SQL is produced.
//
//	s, err := sql.Translate(dialect.Postgres, "appointments", opts)
//	stmt, args := s.Query()
//	// SELECT * FROM "appointments" WHERE "status" = $1 ORDER BY "date" ASC LIMIT 10 OFFSET 10
func Translate(dialectName, table string, opts query.Options) (*Selector, error) {
	if !slices.Contains(dialect.Dialects(), dialectName) {
		return nil, fmt.Errorf("sql: unsupported dialect %q", dialectName)
	}
	n, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	s := Dialect(dialectName).Select().From(table)
	for _, p := range n.Filter {
		pred, err := FromPredicate(p)
		if err != nil {
			return nil, err
		}
		s.Where(pred)
	}
	for _, o := range n.Sort {
		if o.Dir == query.Desc {
			s.OrderBy(Desc(o.Field))
		} else {
			s.OrderBy(Asc(o.Field))
		}
	}
	s.Limit(n.Limit()).Offset(n.Offset())
	if err := s.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// FromPredicate converts a normalized query predicate to a SQL predicate.
// contains and notContains are case-insensitive; startsWith and endsWith
// are not.
func FromPredicate(p query.Predicate) (*Predicate, error) {
	switch p.Op {
	case query.Eq:
		return EQ(p.Field, p.Value), nil
	case query.Ne:
		return NEQ(p.Field, p.Value), nil
	case query.Gt:
		return GT(p.Field, p.Value), nil
	case query.Gte:
		return GTE(p.Field, p.Value), nil
	case query.Lt:
		return LT(p.Field, p.Value), nil
	case query.Lte:
		return LTE(p.Field, p.Value), nil
	case query.In, query.Nin:
		vs, ok := query.Values(p.Value)
		if !ok {
			return nil, &query.InvalidOptionError{Option: p.Field, Value: p.Value, Message: "expects a list"}
		}
		if p.Op == query.In {
			return In(p.Field, vs...), nil
		}
		return NotIn(p.Field, vs...), nil
	case query.Contains, query.NotContains, query.StartsWith, query.EndsWith:
		s, ok := p.Value.(string)
		if !ok {
			return nil, &query.InvalidOptionError{Option: p.Field, Value: p.Value, Message: "expects a string"}
		}
		switch p.Op {
		case query.Contains:
			return ContainsFold(p.Field, s), nil
		case query.NotContains:
			return Not(ContainsFold(p.Field, s)), nil
		case query.StartsWith:
			return HasPrefix(p.Field, s), nil
		default:
			return HasSuffix(p.Field, s), nil
		}
	case query.IsNull:
		return IsNull(p.Field), nil
	case query.NotNull:
		return NotNull(p.Field), nil
	case query.Between:
		vs, ok := query.Values(p.Value)
		if !ok || len(vs) != 2 {
			return nil, &query.InvalidOptionError{Option: p.Field, Value: p.Value, Message: "expects two bounds"}
		}
		return Between(p.Field, vs[0], vs[1]), nil
	default:
		return nil, &query.UnsupportedOperatorError{Field: p.Field, Op: p.Op}
	}
}
