package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Pagination defaults.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*pageSize far from integer overflow.
	MaxPage = 1_000_000
)

// Operator is a filter comparison operator.
type Operator string

// Supported operators.
const (
	Eq          Operator = "eq"
	Ne          Operator = "ne"
	Gt          Operator = "gt"
	Gte         Operator = "gte"
	Lt          Operator = "lt"
	Lte         Operator = "lte"
	In          Operator = "in"
	Nin         Operator = "nin"
	Contains    Operator = "contains"
	NotContains Operator = "notContains"
	StartsWith  Operator = "startsWith"
	EndsWith    Operator = "endsWith"
	IsNull      Operator = "isNull"
	NotNull     Operator = "notNull"
	Between     Operator = "between"
)

// Operators returns every supported operator.
func Operators() []Operator {
	return []Operator{Eq, Ne, Gt, Gte, Lt, Lte, In, Nin, Contains, NotContains, StartsWith, EndsWith, IsNull, NotNull, Between}
}

// Valid reports whether op is supported.
func (op Operator) Valid() bool {
	switch op {
	case Eq, Ne, Gt, Gte, Lt, Lte, In, Nin, Contains, NotContains, StartsWith, EndsWith, IsNull, NotNull, Between:
		return true
	}
	return false
}

// String returns the operator name.
func (op Operator) String() string { return string(op) }

// ParseOperator returns the operator named s.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if !op.Valid() {
		return "", &UnsupportedOperatorError{Op: op}
	}
	return op, nil
}

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Predicate is a single field/operator/value condition.
type Predicate struct {
	Field string   `json:"field" yaml:"field"`
	Op    Operator `json:"op" yaml:"op"`
	Value any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// Order is a single sort key.
type Order struct {
	Field string    `json:"field" yaml:"field"`
	Dir   Direction `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Options is a filter/sort/pagination request. Filter predicates are
// combined with AND. Zero Page and PageSize select the defaults.
type Options struct {
	Filter   []Predicate `json:"filter,omitempty" yaml:"filter,omitempty"`
	Sort     []Order     `json:"sort,omitempty" yaml:"sort,omitempty"`
	Page     int         `json:"page,omitempty" yaml:"page,omitempty"`
	PageSize int         `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`
}

// Normalize validates o and returns a copy with defaults applied:
// page 1, page size DefaultPageSize, ascending sort, list values as []any.
// Unknown operators fail with *UnsupportedOperatorError, everything else
// with *InvalidOptionError.
func (o Options) Normalize() (Options, error) {
	n := Options{Page: o.Page, PageSize: o.PageSize}
	switch {
	case n.Page < 0:
		return Options{}, &InvalidOptionError{Option: "page", Value: o.Page, Message: "must not be negative"}
	case n.Page > MaxPage:
		return Options{}, &InvalidOptionError{Option: "page", Value: o.Page, Message: fmt.Sprintf("must not exceed %d", MaxPage)}
	case n.Page == 0:
		n.Page = DefaultPage
	}
	switch {
	case n.PageSize < 0 || n.PageSize > MaxPageSize:
		return Options{}, &InvalidOptionError{Option: "pageSize", Value: o.PageSize, Message: fmt.Sprintf("must be between 1 and %d", MaxPageSize)}
	case n.PageSize == 0:
		n.PageSize = DefaultPageSize
	}
	for i, p := range o.Filter {
		np, err := p.normalize()
		if err != nil {
			return Options{}, fmt.Errorf("filter[%d]: %w", i, err)
		}
		n.Filter = append(n.Filter, np)
	}
	for i, s := range o.Sort {
		if s.Field == "" {
			return Options{}, &InvalidOptionError{Option: fmt.Sprintf("sort[%d].field", i), Message: "must not be empty"}
		}
		dir := Direction(strings.ToLower(string(s.Dir)))
		switch dir {
		case "":
			dir = Asc
		case Asc, Desc:
		default:
			return Options{}, &InvalidOptionError{Option: fmt.Sprintf("sort[%d].dir", i), Value: s.Dir, Message: "must be asc or desc"}
		}
		n.Sort = append(n.Sort, Order{Field: s.Field, Dir: dir})
	}
	return n, nil
}

func (p Predicate) normalize() (Predicate, error) {
	if !p.Op.Valid() {
		return Predicate{}, &UnsupportedOperatorError{Field: p.Field, Op: p.Op}
	}
	if p.Field == "" {
		return Predicate{}, &InvalidOptionError{Option: "field", Message: "must not be empty"}
	}
	invalid := func(msg string) error {
		return &InvalidOptionError{Option: p.Field, Value: p.Value, Message: msg}
	}
	switch p.Op {
	case IsNull, NotNull:
		return Predicate{Field: p.Field, Op: p.Op}, nil
	case In, Nin:
		vs, ok := Values(p.Value)
		if !ok {
			return Predicate{}, invalid(fmt.Sprintf("operator %s expects a list", p.Op))
		}
		return Predicate{Field: p.Field, Op: p.Op, Value: vs}, nil
	case Between:
		vs, ok := Values(p.Value)
		if !ok || len(vs) != 2 || vs[0] == nil || vs[1] == nil {
			return Predicate{}, invalid("operator between expects two bounds")
		}
		return Predicate{Field: p.Field, Op: p.Op, Value: vs}, nil
	case Contains, NotContains, StartsWith, EndsWith:
		if _, ok := p.Value.(string); !ok {
			return Predicate{}, invalid(fmt.Sprintf("operator %s expects a string", p.Op))
		}
	default:
		if p.Value == nil {
			return Predicate{}, invalid(fmt.Sprintf("operator %s expects a value; use isNull", p.Op))
		}
		if _, ok := Values(p.Value); ok {
			return Predicate{}, invalid(fmt.Sprintf("operator %s expects a scalar", p.Op))
		}
	}
	return p, nil
}

// Offset returns the number of records skipped before the requested page.
func (o Options) Offset() int {
	page := min(max(o.Page, DefaultPage), MaxPage)
	return (page - 1) * o.Limit()
}

// Limit returns the effective page size.
func (o Options) Limit() int {
	if o.PageSize < 1 {
		return DefaultPageSize
	}
	return o.PageSize
}

// Fields returns the distinct field names referenced by filters and sorts.
func (o Options) Fields() []string {
	var names []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, p := range o.Filter {
		add(p.Field)
	}
	for _, s := range o.Sort {
		add(s.Field)
	}
	return names
}

// Values converts any slice or array value to []any. Byte slices and
// strings are scalars.
func Values(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	vs := make([]any, rv.Len())
	for i := range vs {
		vs[i] = rv.Index(i).Interface()
	}
	return vs, true
}
