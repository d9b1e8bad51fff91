package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/modernmen/collectiongen"
)

// DateLayout is the layout accepted for date values without a time part.
const DateLayout = "2006-01-02"

// Field describes a single attribute of a collection.
type Field struct {
	Name        string      `json:"name" yaml:"name"`
	Kind        Kind        `json:"kind" yaml:"kind"`
	Label       string      `json:"label,omitempty" yaml:"label,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Unique      bool        `json:"unique,omitempty" yaml:"unique,omitempty"`
	Index       bool        `json:"index,omitempty" yaml:"index,omitempty"`
	ReadOnly    bool        `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Default     any         `json:"default,omitempty" yaml:"default,omitempty"`
	Constraint  *Constraint `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	// RelationTo is the target collection name of a relation field.
	RelationTo string `json:"relationTo,omitempty" yaml:"relationTo,omitempty"`
	// HasMany makes a relation or select field hold a list of values.
	HasMany bool `json:"hasMany,omitempty" yaml:"hasMany,omitempty"`
	// Options lists the allowed values of a select field.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Constraint restricts the values of a field. For text fields Min and Max
// bound the length in characters, for number fields they bound the value.
type Constraint struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// IsZero reports whether the constraint restricts nothing.
func (c *Constraint) IsZero() bool {
	return c == nil || c.Min == nil && c.Max == nil && c.Pattern == ""
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	if f == nil {
		return nil
	}
	c := *f
	c.Options = slices.Clone(f.Options)
	if f.Constraint != nil {
		cc := *f.Constraint
		if cc.Min != nil {
			v := *cc.Min
			cc.Min = &v
		}
		if cc.Max != nil {
			v := *cc.Max
			cc.Max = &v
		}
		c.Constraint = &cc
	}
	c.Default = cloneValue(f.Default)
	return &c
}

// IsList reports whether the field holds a list of values.
func (f *Field) IsList() bool {
	return f.HasMany && (f.Kind == KindRelation || f.Kind == KindSelect)
}

// HasDefault reports whether the field declares a default value.
func (f *Field) HasDefault() bool { return f.Default != nil }

// Check validates a single runtime value against the field definition.
// A nil value is accepted; presence is enforced by Collection.CheckRecord.
func (f *Field) Check(v any) error {
	if v == nil {
		return nil
	}
	if f.IsList() {
		items, ok := asList(v)
		if !ok {
			return collectiongen.NewConstraintError(f.Name, "expected a list, got %T", v)
		}
		for i, item := range items {
			if err := f.checkScalar(item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	}
	return f.checkScalar(v)
}

func (f *Field) checkScalar(v any) error {
	switch f.Kind {
	case KindText:
		s, ok := v.(string)
		if !ok {
			return collectiongen.NewConstraintError(f.Name, "expected a string, got %T", v)
		}
		return f.checkText(s)
	case KindNumber:
		n, ok := Number(v)
		if !ok {
			return collectiongen.NewConstraintError(f.Name, "expected a number, got %T", v)
		}
		return f.checkNumber(n)
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return collectiongen.NewConstraintError(f.Name, "expected a boolean, got %T", v)
		}
	case KindDate:
		if _, err := ParseDate(v); err != nil {
			return &collectiongen.ConstraintError{Field: f.Name, Msg: "invalid date", Err: err}
		}
	case KindRelation:
		s, ok := v.(string)
		if !ok || s == "" {
			return collectiongen.NewConstraintError(f.Name, "expected a %s id, got %v", f.RelationTo, v)
		}
	case KindSelect:
		s, ok := v.(string)
		if !ok {
			return collectiongen.NewConstraintError(f.Name, "expected a string, got %T", v)
		}
		if !slices.Contains(f.Options, s) {
			return collectiongen.NewConstraintError(f.Name, "%q is not one of %v", s, f.Options)
		}
	case KindRichText:
		switch v.(type) {
		case string, map[string]any, []any, json.RawMessage:
		default:
			return collectiongen.NewConstraintError(f.Name, "expected a rich text document, got %T", v)
		}
	default:
		return collectiongen.NewConstraintError(f.Name, "unknown kind %q", f.Kind)
	}
	return nil
}

func (f *Field) checkText(s string) error {
	if f.Constraint == nil {
		return nil
	}
	n := float64(utf8.RuneCountInString(s))
	if c := f.Constraint; c.Min != nil && n < *c.Min {
		return collectiongen.NewConstraintError(f.Name, "length %v is shorter than %v", n, *c.Min)
	}
	if c := f.Constraint; c.Max != nil && n > *c.Max {
		return collectiongen.NewConstraintError(f.Name, "length %v exceeds %v", n, *c.Max)
	}
	if p := f.Constraint.Pattern; p != "" {
		re, err := regexp.Compile(p)
		if err != nil {
			return &collectiongen.ConstraintError{Field: f.Name, Msg: "invalid pattern", Err: err}
		}
		if !re.MatchString(s) {
			return collectiongen.NewConstraintError(f.Name, "%q does not match %s", s, p)
		}
	}
	return nil
}

func (f *Field) checkNumber(n float64) error {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return collectiongen.NewConstraintError(f.Name, "value %v is not finite", n)
	}
	if f.Constraint == nil {
		return nil
	}
	if c := f.Constraint; c.Min != nil && n < *c.Min {
		return collectiongen.NewConstraintError(f.Name, "value %v is less than %v", n, *c.Min)
	}
	if c := f.Constraint; c.Max != nil && n > *c.Max {
		return collectiongen.NewConstraintError(f.Name, "value %v is greater than %v", n, *c.Max)
	}
	return nil
}

// Number converts the numeric representations produced by the JSON and
// YAML decoders to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ParseDate parses a date value given as time.Time, RFC 3339 or YYYY-MM-DD.
func ParseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		if t, err := time.Parse(time.RFC3339Nano, d); err == nil {
			return t, nil
		}
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor %s", d, DateLayout)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported date value %T", v)
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		items := make([]any, len(l))
		for i := range l {
			items[i] = l[i]
		}
		return items, true
	}
	return nil, false
}

func cloneValue(v any) any {
	switch d := v.(type) {
	case []any:
		return slices.Clone(d)
	case []string:
		return slices.Clone(d)
	}
	return v
}
