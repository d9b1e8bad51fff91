package sql

import (
	"strings"

	"github.com/modernmen/collectiongen/dialect"
)

// Predicate is a boolean SQL expression rendered into a statement builder.
// Rendering is deferred so placeholders are numbered in statement order.
type Predicate struct {
	fns []func(*Builder)
	// or marks disjunctions, which need parentheses inside a conjunction.
	or bool
}

// P creates a predicate from render functions.
//
//	sql.P(func(b *sql.Builder) {
//	    b.Ident("price").WriteString(" % ").Arg(2).WriteString(" = 0")
//	})
func P(fns ...func(*Builder)) *Predicate {
	return &Predicate{fns: fns}
}

// Append adds a render function to the predicate.
func (p *Predicate) Append(f func(*Builder)) *Predicate {
	p.fns = append(p.fns, f)
	return p
}

func (p *Predicate) render(b *Builder) {
	for _, f := range p.fns {
		f(b)
	}
}

// Query renders the predicate on its own using the given dialect.
func (p *Predicate) Query(dialectName string) (string, []any) {
	b := &Builder{dialect: dialectName}
	p.render(b)
	return b.Query()
}

func binary(column, op string, v any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(column).WriteString(" " + op + " ").Arg(v)
	})
}

// EQ returns a "column = value" predicate.
func EQ(column string, v any) *Predicate { return binary(column, "=", v) }

// NEQ returns a "column <> value" predicate.
func NEQ(column string, v any) *Predicate { return binary(column, "<>", v) }

// GT returns a "column > value" predicate.
func GT(column string, v any) *Predicate { return binary(column, ">", v) }

// GTE returns a "column >= value" predicate.
func GTE(column string, v any) *Predicate { return binary(column, ">=", v) }

// LT returns a "column < value" predicate.
func LT(column string, v any) *Predicate { return binary(column, "<", v) }

// LTE returns a "column <= value" predicate.
func LTE(column string, v any) *Predicate { return binary(column, "<=", v) }

// In returns a "column IN (...)" predicate. An empty list matches nothing.
func In(column string, vs ...any) *Predicate {
	return P(func(b *Builder) {
		if len(vs) == 0 {
			b.WriteString("1 = 0")
			return
		}
		b.Ident(column).WriteString(" IN (").Args(vs...).WriteString(")")
	})
}

// NotIn returns a "column NOT IN (...)" predicate. An empty list matches everything.
func NotIn(column string, vs ...any) *Predicate {
	return P(func(b *Builder) {
		if len(vs) == 0 {
			b.WriteString("1 = 1")
			return
		}
		b.Ident(column).WriteString(" NOT IN (").Args(vs...).WriteString(")")
	})
}

// IsNull returns a "column IS NULL" predicate.
func IsNull(column string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(column).WriteString(" IS NULL")
	})
}

// NotNull returns a "column IS NOT NULL" predicate.
func NotNull(column string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(column).WriteString(" IS NOT NULL")
	})
}

// Between returns an inclusive "column BETWEEN lo AND hi" predicate.
func Between(column string, lo, hi any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(column).WriteString(" BETWEEN ").Arg(lo).WriteString(" AND ").Arg(hi)
	})
}

// Contains returns a case-sensitive substring predicate.
func Contains(column, substr string) *Predicate {
	return like(column, "%"+escapeLike(substr)+"%", false)
}

// ContainsFold returns a case-insensitive substring predicate.
func ContainsFold(column, substr string) *Predicate {
	return like(column, "%"+escapeLike(substr)+"%", true)
}

// HasPrefix returns a prefix predicate.
func HasPrefix(column, prefix string) *Predicate {
	return like(column, escapeLike(prefix)+"%", false)
}

// HasSuffix returns a suffix predicate.
func HasSuffix(column, suffix string) *Predicate {
	return like(column, "%"+escapeLike(suffix), false)
}

func like(column, pattern string, fold bool) *Predicate {
	return P(func(b *Builder) {
		switch {
		case fold && b.dialect == dialect.Postgres:
			b.Ident(column).WriteString(" ILIKE ").Arg(pattern)
		case fold:
			b.WriteString("LOWER(").Ident(column).WriteString(") LIKE ").Arg(strings.ToLower(pattern))
		default:
			b.Ident(column).WriteString(" LIKE ").Arg(pattern)
		}
		if b.dialect == dialect.SQLite {
			b.WriteString(` ESCAPE '\'`)
		}
	})
}

// escapeLike escapes the LIKE wildcards of a literal.
func escapeLike(s string) string {
	if !strings.ContainsAny(s, `%_\`) {
		return s
	}
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// And combines predicates with AND.
func And(preds ...*Predicate) *Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return P(func(b *Builder) {
		for i, p := range preds {
			if i > 0 {
				b.WriteString(" AND ")
			}
			if p.or {
				b.WriteString("(")
				p.render(b)
				b.WriteString(")")
			} else {
				p.render(b)
			}
		}
	})
}

// Or combines predicates with OR.
func Or(preds ...*Predicate) *Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	p := P(func(b *Builder) {
		for i, p := range preds {
			if i > 0 {
				b.WriteString(" OR ")
			}
			p.render(b)
		}
	})
	p.or = true
	return p
}

// Not negates a predicate.
func Not(pred *Predicate) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT (")
		pred.render(b)
		b.WriteString(")")
	})
}
