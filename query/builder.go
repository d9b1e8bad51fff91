package query

import "slices"

// Builder provides a fluent API for building Options.
type Builder struct {
	opts Options
}

// New creates an empty builder.
func New() *Builder {
	return &Builder{}
}

// Where adds a predicate.
func (b *Builder) Where(field string, op Operator, value any) *Builder {
	b.opts.Filter = append(b.opts.Filter, Predicate{Field: field, Op: op, Value: value})
	return b
}

// WhereEq adds an equality predicate.
func (b *Builder) WhereEq(field string, value any) *Builder {
	return b.Where(field, Eq, value)
}

// WhereIn adds a membership predicate.
func (b *Builder) WhereIn(field string, values ...any) *Builder {
	return b.Where(field, In, values)
}

// WhereBetween adds an inclusive range predicate.
func (b *Builder) WhereBetween(field string, lo, hi any) *Builder {
	return b.Where(field, Between, []any{lo, hi})
}

// OrderBy appends a sort key.
func (b *Builder) OrderBy(field string, dir Direction) *Builder {
	b.opts.Sort = append(b.opts.Sort, Order{Field: field, Dir: dir})
	return b
}

// Page sets the 1-based page number.
func (b *Builder) Page(n int) *Builder {
	b.opts.Page = n
	return b
}

// PageSize sets the page size.
func (b *Builder) PageSize(n int) *Builder {
	b.opts.PageSize = n
	return b
}

// Build returns a copy of the built options.
func (b *Builder) Build() Options {
	return Options{
		Filter:   slices.Clone(b.opts.Filter),
		Sort:     slices.Clone(b.opts.Sort),
		Page:     b.opts.Page,
		PageSize: b.opts.PageSize,
	}
}
