package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modernmen/collectiongen"
	"github.com/modernmen/collectiongen/dialect"
	"github.com/modernmen/collectiongen/query"
	"github.com/modernmen/collectiongen/schema"
)

// sqliteTime is the text layout of dates on SQLite. The fixed width keeps
// lexical and chronological order equal.
const sqliteTime = "2006-01-02T15:04:05.000000Z"

// codec converts record values to column values and back for one dialect.
type codec struct {
	dialect string
	def     *schema.Collection
}

// field returns the definition of a declared or system field.
func (c codec) field(name string) (*schema.Field, bool) {
	switch name {
	case schema.FieldID:
		return &schema.Field{Name: name, Kind: schema.KindText}, true
	case schema.FieldCreatedAt, schema.FieldUpdatedAt:
		return &schema.Field{Name: name, Kind: schema.KindDate}, true
	}
	return c.def.Field(name)
}

// encode converts a checked record value to its column value.
func (c codec) encode(f *schema.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if f.IsList() || f.Kind == schema.KindRichText {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.Name, err)
		}
		return string(b), nil
	}
	return c.scalar(f, v)
}

// scalar converts a single value of a non list field.
func (c codec) scalar(f *schema.Field, v any) (any, error) {
	switch f.Kind {
	case schema.KindNumber:
		if n, ok := schema.Number(v); ok {
			return n, nil
		}
	case schema.KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case schema.KindDate:
		t, err := schema.ParseDate(v)
		if err != nil {
			return nil, err
		}
		return c.time(t), nil
	default:
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("encode %s: unexpected %T for %s", f.Name, v, f.Kind)
}

func (c codec) time(t time.Time) any {
	t = t.UTC()
	if c.dialect == dialect.SQLite {
		return t.Format(sqliteTime)
	}
	return t
}

// decode converts a scanned row to a record. Unknown columns are dropped.
func (c codec) decode(row map[string]any) (Record, error) {
	r := make(Record, len(row))
	for col, v := range row {
		f, ok := c.field(col)
		if !ok {
			continue
		}
		dv, err := decodeValue(f, v)
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", c.def.Name, col, err)
		}
		r[col] = dv
	}
	return r, nil
}

func decodeValue(f *schema.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if f.IsList() || f.Kind == schema.KindRichText {
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	switch f.Kind {
	case schema.KindNumber:
		if s, ok := v.(string); ok {
			return strconv.ParseFloat(s, 64)
		}
		if n, ok := schema.Number(v); ok {
			return n, nil
		}
	case schema.KindBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case int64:
			return b != 0, nil
		case string:
			return strconv.ParseBool(b)
		}
	case schema.KindDate:
		return decodeTime(v)
	default:
		return fmt.Sprint(v), nil
	}
	return nil, fmt.Errorf("unexpected %T for %s", v, f.Kind)
}

func decodeTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05.999999", schema.DateLayout} {
			if d, err := time.Parse(layout, t); err == nil {
				return d.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized time %q", t)
	}
	return time.Time{}, fmt.Errorf("unexpected %T for date", v)
}

// options checks that filters and sorts name queryable fields and converts
// filter values to column values. Values parsed from a URL arrive as
// strings and are coerced to the field kind.
func (c codec) options(opts query.Options) (query.Options, error) {
	n, err := opts.Normalize()
	if err != nil {
		return query.Options{}, err
	}
	for _, name := range n.Fields() {
		if !c.def.Queryable(name) {
			return query.Options{}, &query.InvalidOptionError{Option: name, Message: fmt.Sprintf("unknown field for %s", c.def.Name)}
		}
	}
	for i, p := range n.Filter {
		v, err := c.predicateValue(p)
		if err != nil {
			return query.Options{}, fmt.Errorf("filter[%d]: %w", i, err)
		}
		n.Filter[i].Value = v
	}
	return n, nil
}

func (c codec) predicateValue(p query.Predicate) (any, error) {
	f, _ := c.field(p.Field)
	switch p.Op {
	case query.IsNull, query.NotNull:
		return nil, nil
	case query.Contains, query.NotContains, query.StartsWith, query.EndsWith:
		return p.Value, nil
	}
	if vs, ok := query.Values(p.Value); ok {
		out := make([]any, len(vs))
		for i, v := range vs {
			cv, err := c.filterScalar(f, v)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	}
	return c.filterScalar(f, p.Value)
}

// filterScalar converts one filter operand. List fields compare against
// their JSON text and are matched with the string operators only.
func (c codec) filterScalar(f *schema.Field, v any) (any, error) {
	invalid := func(err error) error {
		return &query.InvalidOptionError{Option: f.Name, Value: v, Message: err.Error()}
	}
	if f.IsList() || f.Kind == schema.KindRichText {
		return nil, invalid(fmt.Errorf("%s field supports string operators only", f.Kind))
	}
	if s, ok := v.(string); ok {
		switch f.Kind {
		case schema.KindNumber:
			n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, invalid(fmt.Errorf("expected a number"))
			}
			v = n
		case schema.KindBoolean:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, invalid(fmt.Errorf("expected a boolean"))
			}
			v = b
		}
	}
	out, err := c.scalar(f, v)
	if err != nil {
		return nil, invalid(err)
	}
	return out, nil
}

// row converts a full record to insert columns and values, in the order
// id, declared fields, createdAt, updatedAt.
func (c codec) row(r Record) ([]string, []any, error) {
	cols := []string{schema.FieldID}
	vals := []any{r.ID()}
	for _, f := range c.def.Fields {
		v, err := c.encode(f, r[f.Name])
		if err != nil {
			return nil, nil, constraint(f.Name, err)
		}
		cols = append(cols, f.Name)
		vals = append(vals, v)
	}
	if c.def.HasTimestamps() {
		for _, name := range []string{schema.FieldCreatedAt, schema.FieldUpdatedAt} {
			t, _ := r[name].(time.Time)
			cols = append(cols, name)
			vals = append(vals, c.time(t))
		}
	}
	return cols, vals, nil
}

func constraint(field string, err error) error {
	return &collectiongen.ConstraintError{Field: field, Err: err}
}
