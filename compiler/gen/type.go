package gen

import (
	"strings"

	"github.com/modernmen/collectiongen/schema"
)

// The following types and their exported methods are used by the
// translators to render the artifacts.
type (
	// Type represents one validated collection in the graph.
	Type struct {
		*Config
		def *schema.Collection
		// Name holds the collection name, e.g. "Appointment".
		Name string
		// Slug is the URL and storage identifier, e.g. "appointments".
		Slug string
		// Fields holds the declared fields in order.
		Fields []*Field
		fields map[string]*Field
	}

	// Field holds a validated field and its resolved relation target.
	Field struct {
		def *schema.Field
		typ *Type
		// Name is the declared field name.
		Name string
		// Kind is the canonical field kind.
		Kind schema.Kind
		// Ref is the target type when the relation points into this graph.
		// It is nil for external targets.
		Ref *Type
		// RefName and RefSlug identify the relation target for every
		// relation field, external or not.
		RefName string
		RefSlug string
	}
)

// Definition returns a copy of the collection definition.
func (t *Type) Definition() *schema.Collection { return t.def.Clone() }

// Label returns the singular display label.
func (t Type) Label() string { return t.def.SingularLabel() }

// PluralLabel returns the plural display label.
func (t Type) PluralLabel() string { return t.def.PluralLabel() }

// Description returns the collection description.
func (t Type) Description() string { return t.def.Description }

// Table returns the storage table name.
func (t Type) Table() string { return t.def.Table() }

// Package returns the Go package name of the collection.
func (t Type) Package() string { return strings.ToLower(t.Name) }

// PluralName returns the exported plural name, e.g. "Appointments".
func (t Type) PluralName() string { return pascal(plural(t.Name)) }

// TypeName returns the exported entity name.
func (t Type) TypeName() string { return pascal(t.Name) }

// Receiver returns the receiver name used by generated methods.
func (t Type) Receiver() string { return receiver(t.Name) }

// HasTimestamps reports whether createdAt and updatedAt are maintained.
func (t Type) HasTimestamps() bool { return t.def.HasTimestamps() }

// Access returns the declared access rules.
func (t Type) Access() schema.Access { return t.def.Access }

// Rule returns the effective rule for op.
func (t Type) Rule(op schema.Op) schema.AccessRule { return t.def.Access.Rule(op) }

// Hooks returns the hooks for each event, in event order.
func (t Type) Hooks() schema.Hooks { return t.def.Hooks.Clone() }

// HookNames returns every distinct hook name, sorted.
func (t Type) HookNames() []string { return t.def.Hooks.Names() }

// Admin returns the admin panel hints, or nil.
func (t Type) Admin() *schema.Admin {
	if t.def.Admin == nil {
		return nil
	}
	return t.def.Clone().Admin
}

// Labels reports whether labels were declared explicitly.
func (t Type) Labels() *schema.Labels { return t.def.Labels }

// Field returns the field with the given name.
func (t Type) Field(name string) (*Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// FieldBy returns the first field matching fn.
func (t Type) FieldBy(fn func(*Field) bool) (*Field, bool) {
	for _, f := range t.Fields {
		if fn(f) {
			return f, true
		}
	}
	return nil, false
}

// Relations returns the relation fields.
func (t Type) Relations() []*Field {
	var fs []*Field
	for _, f := range t.Fields {
		if f.IsRelation() {
			fs = append(fs, f)
		}
	}
	return fs
}

// SelectFields returns the select fields.
func (t Type) SelectFields() []*Field {
	var fs []*Field
	for _, f := range t.Fields {
		if f.IsSelect() {
			fs = append(fs, f)
		}
	}
	return fs
}

// RequiredFields returns the fields that must be present on create.
func (t Type) RequiredFields() []*Field {
	var fs []*Field
	for _, f := range t.Fields {
		if f.Required() {
			fs = append(fs, f)
		}
	}
	return fs
}

// MutableFields returns the fields a client may set.
func (t Type) MutableFields() []*Field {
	var fs []*Field
	for _, f := range t.Fields {
		if !f.ReadOnly() {
			fs = append(fs, f)
		}
	}
	return fs
}

// QueryableFields returns the fields usable in filters and sorts.
func (t Type) QueryableFields() []string {
	names := []string{schema.FieldID}
	if t.HasTimestamps() {
		names = append(names, schema.FieldCreatedAt, schema.FieldUpdatedAt)
	}
	for _, f := range t.Fields {
		if t.def.Queryable(f.Name) {
			names = append(names, f.Name)
		}
	}
	return names
}

// RelatedTypes returns the distinct in-graph relation targets in field order.
func (t Type) RelatedTypes() []*Type {
	var ts []*Type
	seen := make(map[string]bool)
	for _, f := range t.Fields {
		if f.Ref != nil && !seen[f.Ref.Name] {
			seen[f.Ref.Name] = true
			ts = append(ts, f.Ref)
		}
	}
	return ts
}

// Definition returns a copy of the field definition.
func (f *Field) Definition() *schema.Field { return f.def.Clone() }

// Type returns the owning type.
func (f *Field) Type() *Type { return f.typ }

// StructField returns the exported Go field name.
func (f Field) StructField() string { return pascal(f.Name) }

// Label returns the display label, derived from the name when not declared.
func (f Field) Label() string {
	if f.def.Label != "" {
		return f.def.Label
	}
	words := strings.Split(snake(f.Name), "_")
	if len(words) > 0 && words[0] != "" {
		words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	}
	return strings.Join(words, " ")
}

// Description returns the field description.
func (f Field) Description() string { return f.def.Description }

// Required reports whether the field must be present on create.
func (f Field) Required() bool { return f.def.Required }

// Optional reports whether the field may be absent.
func (f Field) Optional() bool { return !f.def.Required }

// Unique reports whether values must be unique across records.
func (f Field) Unique() bool { return f.def.Unique }

// Index reports whether the field is indexed.
func (f Field) Index() bool { return f.def.Index || f.def.Unique }

// ReadOnly reports whether clients may not set the field.
func (f Field) ReadOnly() bool { return f.def.ReadOnly }

// HasMany reports whether the field holds a list.
func (f Field) HasMany() bool { return f.def.IsList() }

// HasDefault reports whether a default value is declared.
func (f Field) HasDefault() bool { return f.def.HasDefault() }

// Default returns the declared default value.
func (f Field) Default() any { return f.def.Default }

// Constraint returns the declared constraint or nil.
func (f Field) Constraint() *schema.Constraint {
	if f.def.Constraint.IsZero() {
		return nil
	}
	return f.def.Clone().Constraint
}

// Options returns the allowed values of a select field.
func (f Field) Options() []string { return f.def.Clone().Options }

// IsRelation reports whether the field references another collection.
func (f Field) IsRelation() bool { return f.Kind == schema.KindRelation }

// IsSelect reports whether the field is an enumeration.
func (f Field) IsSelect() bool { return f.Kind == schema.KindSelect }

// IsText reports whether the field is plain text.
func (f Field) IsText() bool { return f.Kind == schema.KindText }

// IsNumber reports whether the field is numeric.
func (f Field) IsNumber() bool { return f.Kind == schema.KindNumber }

// IsDate reports whether the field is a date.
func (f Field) IsDate() bool { return f.Kind == schema.KindDate }

// IsBool reports whether the field is a boolean.
func (f Field) IsBool() bool { return f.Kind == schema.KindBoolean }

// IsRichText reports whether the field holds rich text.
func (f Field) IsRichText() bool { return f.Kind == schema.KindRichText }

// EnumName returns the exported name of the select option type,
// e.g. "AppointmentStatus".
func (f Field) EnumName() string { return f.typ.TypeName() + pascal(f.Name) }

// EnumConst returns the exported constant name of a select option,
// e.g. "AppointmentStatusBooked".
func (f Field) EnumConst(option string) string {
	name := pascal(option)
	if name == "" || !startsWithLetter(name) {
		name = "V" + name
	}
	return f.EnumName() + name
}

func startsWithLetter(s string) bool {
	for _, r := range s {
		return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z'
	}
	return false
}
