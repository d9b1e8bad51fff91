package sql

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/modernmen/collectiongen/dialect"
)

// validIdentifierRe validates SQL identifiers. Field names are camelCase,
// so quoting preserves their case on Postgres.
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 63 && validIdentifierRe.MatchString(s)
}

// Querier wraps the basic Query method implemented by all builders.
type Querier interface {
	// Query returns the statement and its arguments.
	Query() (string, []any)
}

// Builder is the low-level statement writer shared by all builders.
// It quotes identifiers and numbers placeholders for its dialect.
type Builder struct {
	sb      strings.Builder
	dialect string
	args    []any
	errs    []error
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// Quote quotes an identifier for the dialect.
func (b *Builder) Quote(ident string) string {
	if b.dialect == dialect.MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Ident writes a quoted identifier, recording an error for invalid names.
func (b *Builder) Ident(s string) *Builder {
	if !isValidIdentifier(s) {
		b.AddError(fmt.Errorf("sql: invalid identifier %q", s))
	}
	b.sb.WriteString(b.Quote(s))
	return b
}

// WriteString writes raw SQL.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Arg writes a placeholder and records its argument.
func (b *Builder) Arg(a any) *Builder {
	b.args = append(b.args, a)
	if b.dialect == dialect.Postgres {
		b.sb.WriteString("$" + strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteString("?")
	}
	return b
}

// Args writes a comma separated placeholder list.
func (b *Builder) Args(as ...any) *Builder {
	for i, a := range as {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Arg(a)
	}
	return b
}

// IdentList writes a comma separated list of quoted identifiers.
func (b *Builder) IdentList(cols ...string) *Builder {
	for i, c := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Ident(c)
	}
	return b
}

// AddError records a build error.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns the joined build errors.
func (b *Builder) Err() error { return errors.Join(b.errs...) }

// String returns the statement written so far.
func (b *Builder) String() string { return b.sb.String() }

// Query implements the Querier interface.
func (b *Builder) Query() (string, []any) { return b.sb.String(), b.args }

// DialectBuilder creates statement builders for a dialect.
type DialectBuilder struct {
	dialect string
}

// Dialect returns a DialectBuilder for the given dialect name.
//
//	sql.Dialect(dialect.Postgres).Select("id").From("appointments")
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name}
}

// Select starts a SELECT statement. No columns selects all columns.
func (d *DialectBuilder) Select(columns ...string) *Selector {
	return &Selector{dialect: d.dialect, columns: columns}
}

// Insert starts an INSERT statement.
func (d *DialectBuilder) Insert(table string) *InsertBuilder {
	return &InsertBuilder{dialect: d.dialect, table: table}
}

// Update starts an UPDATE statement.
func (d *DialectBuilder) Update(table string) *UpdateBuilder {
	return &UpdateBuilder{dialect: d.dialect, table: table}
}

// Delete starts a DELETE statement.
func (d *DialectBuilder) Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{dialect: d.dialect, table: table}
}

// OrderTerm is a single ORDER BY key.
type OrderTerm struct {
	Column string
	Desc   bool
}

// Asc returns an ascending order term.
func Asc(column string) OrderTerm { return OrderTerm{Column: column} }

// Desc returns a descending order term.
func Desc(column string) OrderTerm { return OrderTerm{Column: column, Desc: true} }

// Selector is a builder for SELECT statements.
type Selector struct {
	dialect string
	table   string
	columns []string
	preds   []*Predicate
	order   []OrderTerm
	limit   *int
	offset  *int
	count   bool
}

// From sets the source table.
func (s *Selector) From(table string) *Selector {
	s.table = table
	return s
}

// Table returns the source table.
func (s *Selector) Table() string { return s.table }

// Dialect returns the dialect of the statement.
func (s *Selector) Dialect() string { return s.dialect }

// Where appends a predicate. Predicates are combined with AND.
func (s *Selector) Where(p *Predicate) *Selector {
	if p != nil {
		s.preds = append(s.preds, p)
	}
	return s
}

// OrderBy appends order terms.
func (s *Selector) OrderBy(terms ...OrderTerm) *Selector {
	s.order = append(s.order, terms...)
	return s
}

// Limit sets the LIMIT clause.
func (s *Selector) Limit(n int) *Selector {
	s.limit = &n
	return s
}

// Offset sets the OFFSET clause.
func (s *Selector) Offset(n int) *Selector {
	s.offset = &n
	return s
}

// Count returns a COUNT(*) statement over the same table and predicates,
// without ordering or pagination.
func (s *Selector) Count() *Selector {
	return &Selector{
		dialect: s.dialect,
		table:   s.table,
		preds:   append([]*Predicate(nil), s.preds...),
		count:   true,
	}
}

// Clone returns a copy of the selector.
func (s *Selector) Clone() *Selector {
	c := *s
	c.columns = append([]string(nil), s.columns...)
	c.preds = append([]*Predicate(nil), s.preds...)
	c.order = append([]OrderTerm(nil), s.order...)
	return &c
}

func (s *Selector) build() *Builder {
	b := &Builder{dialect: s.dialect}
	b.WriteString("SELECT ")
	switch {
	case s.count:
		b.WriteString("COUNT(*)")
	case len(s.columns) == 0:
		b.WriteString("*")
	default:
		b.IdentList(s.columns...)
	}
	if s.table == "" {
		b.AddError(errors.New("sql: select without a table"))
	}
	b.WriteString(" FROM ").Ident(s.table)
	writeWhere(b, s.preds)
	for i, o := range s.order {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.Ident(o.Column)
		if o.Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}
	if s.limit != nil {
		b.WriteString(" LIMIT " + strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET " + strconv.Itoa(*s.offset))
	}
	return b
}

// Query implements the Querier interface.
func (s *Selector) Query() (string, []any) { return s.build().Query() }

// Err returns the errors found while building the statement.
func (s *Selector) Err() error { return s.build().Err() }

func writeWhere(b *Builder, preds []*Predicate) {
	if len(preds) == 0 {
		return
	}
	b.WriteString(" WHERE ")
	And(preds...).render(b)
}

// InsertBuilder is a builder for INSERT statements.
type InsertBuilder struct {
	dialect   string
	table     string
	columns   []string
	values    [][]any
	returning []string
}

// Columns sets the inserted columns.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append(i.columns, columns...)
	return i
}

// Values appends a row of values.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values)
	return i
}

// Returning adds a RETURNING clause on dialects that support it.
func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	i.returning = columns
	return i
}

// Query implements the Querier interface.
func (i *InsertBuilder) Query() (string, []any) {
	b := i.build()
	return b.Query()
}

// Err returns the errors found while building the statement.
func (i *InsertBuilder) Err() error { return i.build().Err() }

func (i *InsertBuilder) build() *Builder {
	b := &Builder{dialect: i.dialect}
	b.WriteString("INSERT INTO ").Ident(i.table).WriteString(" (").IdentList(i.columns...).WriteString(") VALUES ")
	if len(i.values) == 0 {
		b.AddError(errors.New("sql: insert without values"))
	}
	for n, row := range i.values {
		if len(row) != len(i.columns) {
			b.AddError(fmt.Errorf("sql: insert row %d has %d values for %d columns", n, len(row), len(i.columns)))
		}
		if n > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(").Args(row...).WriteString(")")
	}
	if len(i.returning) > 0 && i.dialect != dialect.MySQL {
		b.WriteString(" RETURNING ").IdentList(i.returning...)
	}
	return b
}

// UpdateBuilder is a builder for UPDATE statements.
type UpdateBuilder struct {
	dialect string
	table   string
	columns []string
	values  []any
	preds   []*Predicate
}

// Set appends a column assignment. Assignments keep their call order.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// Where appends a predicate. Predicates are combined with AND.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if p != nil {
		u.preds = append(u.preds, p)
	}
	return u
}

// Empty reports whether the update assigns nothing.
func (u *UpdateBuilder) Empty() bool { return len(u.columns) == 0 }

// Query implements the Querier interface.
func (u *UpdateBuilder) Query() (string, []any) { return u.build().Query() }

// Err returns the errors found while building the statement.
func (u *UpdateBuilder) Err() error { return u.build().Err() }

func (u *UpdateBuilder) build() *Builder {
	b := &Builder{dialect: u.dialect}
	b.WriteString("UPDATE ").Ident(u.table).WriteString(" SET ")
	if u.Empty() {
		b.AddError(errors.New("sql: update without assignments"))
	}
	for i, c := range u.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(c).WriteString(" = ").Arg(u.values[i])
	}
	writeWhere(b, u.preds)
	return b
}

// DeleteBuilder is a builder for DELETE statements.
type DeleteBuilder struct {
	dialect string
	table   string
	preds   []*Predicate
}

// Where appends a predicate. Predicates are combined with AND.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if p != nil {
		d.preds = append(d.preds, p)
	}
	return d
}

// Query implements the Querier interface.
func (d *DeleteBuilder) Query() (string, []any) { return d.build().Query() }

// Err returns the errors found while building the statement.
func (d *DeleteBuilder) Err() error { return d.build().Err() }

func (d *DeleteBuilder) build() *Builder {
	b := &Builder{dialect: d.dialect}
	b.WriteString("DELETE FROM ").Ident(d.table)
	writeWhere(b, d.preds)
	return b
}
