// Package field provides fluent builders for collection fields.
//
//	field.Text("title").Required().MaxLen(120)
//	field.Number("price").Min(0)
//	field.Select("status", "pending", "booked", "cancelled").Default("pending")
//	field.Relation("customer", "Customer")
//	field.Relation("services", "Service").HasMany()
//
// Builders are consumed with Descriptor, which returns a fresh
// *schema.Field on every call.
package field

import "github.com/modernmen/collectiongen/schema"

// Builder builds a single field definition.
type Builder struct {
	desc *schema.Field
}

func newBuilder(name string, kind schema.Kind) *Builder {
	return &Builder{desc: &schema.Field{Name: name, Kind: kind}}
}

// Text returns a builder for a text field.
func Text(name string) *Builder { return newBuilder(name, schema.KindText) }

// Number returns a builder for a number field.
func Number(name string) *Builder { return newBuilder(name, schema.KindNumber) }

// Boolean returns a builder for a boolean field.
func Boolean(name string) *Builder { return newBuilder(name, schema.KindBoolean) }

// Date returns a builder for a date field.
func Date(name string) *Builder { return newBuilder(name, schema.KindDate) }

// RichText returns a builder for a rich text field.
func RichText(name string) *Builder { return newBuilder(name, schema.KindRichText) }

// Relation returns a builder for a field referencing records of the target collection.
func Relation(name, target string) *Builder {
	b := newBuilder(name, schema.KindRelation)
	b.desc.RelationTo = target
	return b
}

// Select returns a builder for a field restricted to the given options.
func Select(name string, options ...string) *Builder {
	b := newBuilder(name, schema.KindSelect)
	b.desc.Options = append([]string(nil), options...)
	return b
}

// Required marks the field as required on create.
func (b *Builder) Required() *Builder {
	b.desc.Required = true
	return b
}

// Unique adds a uniqueness constraint.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Index requests a storage index on the field.
func (b *Builder) Index() *Builder {
	b.desc.Index = true
	return b
}

// ReadOnly excludes the field from create and update payloads.
func (b *Builder) ReadOnly() *Builder {
	b.desc.ReadOnly = true
	return b
}

// HasMany turns a relation or select field into a list.
func (b *Builder) HasMany() *Builder {
	b.desc.HasMany = true
	return b
}

// Default sets the value used when the field is absent on create.
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = v
	return b
}

// Label sets the display label.
func (b *Builder) Label(l string) *Builder {
	b.desc.Label = l
	return b
}

// Comment sets the field description.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Description = c
	return b
}

// Min sets the lower bound: the value for numbers, the length for text.
func (b *Builder) Min(v float64) *Builder {
	b.constraint().Min = &v
	return b
}

// Max sets the upper bound: the value for numbers, the length for text.
func (b *Builder) Max(v float64) *Builder {
	b.constraint().Max = &v
	return b
}

// Range sets both bounds.
func (b *Builder) Range(lo, hi float64) *Builder {
	return b.Min(lo).Max(hi)
}

// MinLen is an alias of Min for text fields.
func (b *Builder) MinLen(n int) *Builder { return b.Min(float64(n)) }

// MaxLen is an alias of Max for text fields.
func (b *Builder) MaxLen(n int) *Builder { return b.Max(float64(n)) }

// Match requires text values to match the regular expression.
func (b *Builder) Match(pattern string) *Builder {
	b.constraint().Pattern = pattern
	return b
}

func (b *Builder) constraint() *schema.Constraint {
	if b.desc.Constraint == nil {
		b.desc.Constraint = &schema.Constraint{}
	}
	return b.desc.Constraint
}

// Descriptor returns a copy of the built field.
func (b *Builder) Descriptor() *schema.Field {
	return b.desc.Clone()
}
