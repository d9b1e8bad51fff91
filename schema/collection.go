package schema

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/modernmen/collectiongen"
)

// System fields maintained by the runtime for every collection.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// SystemFields returns the names managed by the runtime.
func SystemFields() []string { return []string{FieldID, FieldCreatedAt, FieldUpdatedAt} }

// IsSystemField reports whether name is managed by the runtime.
func IsSystemField(name string) bool {
	return name == FieldID || name == FieldCreatedAt || name == FieldUpdatedAt
}

// Collection is a named entity type with an ordered field list.
type Collection struct {
	Name        string  `json:"name" yaml:"name"`
	Slug        string  `json:"slug,omitempty" yaml:"slug,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Labels      *Labels `json:"labels,omitempty" yaml:"labels,omitempty"`
	Admin       *Admin  `json:"admin,omitempty" yaml:"admin,omitempty"`
	Access      Access  `json:"access,omitzero" yaml:"access,omitempty"`
	Hooks       Hooks   `json:"hooks,omitempty" yaml:"hooks,omitempty"`
	// Timestamps defaults to true when unset.
	Timestamps *bool    `json:"timestamps,omitempty" yaml:"timestamps,omitempty"`
	Fields     []*Field `json:"fields" yaml:"fields"`
}

// Labels are the human readable names of a collection.
type Labels struct {
	Singular string `json:"singular,omitempty" yaml:"singular,omitempty"`
	Plural   string `json:"plural,omitempty" yaml:"plural,omitempty"`
}

// Admin holds presentation hints for the CMS admin panel.
type Admin struct {
	UseAsTitle     string   `json:"useAsTitle,omitempty" yaml:"useAsTitle,omitempty"`
	DefaultColumns []string `json:"defaultColumns,omitempty" yaml:"defaultColumns,omitempty"`
	Group          string   `json:"group,omitempty" yaml:"group,omitempty"`
}

// Clone returns a deep copy of the collection.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	n := *c
	if c.Labels != nil {
		l := *c.Labels
		n.Labels = &l
	}
	if c.Admin != nil {
		a := *c.Admin
		a.DefaultColumns = slices.Clone(c.Admin.DefaultColumns)
		n.Admin = &a
	}
	if c.Timestamps != nil {
		v := *c.Timestamps
		n.Timestamps = &v
	}
	n.Hooks = c.Hooks.Clone()
	n.Fields = make([]*Field, len(c.Fields))
	for i, f := range c.Fields {
		n.Fields[i] = f.Clone()
	}
	return &n
}

// SlugName returns the declared slug, or the dasherized plural of Name.
func (c *Collection) SlugName() string {
	if c.Slug != "" {
		return c.Slug
	}
	return inflect.Dasherize(inflect.Pluralize(c.Name))
}

// Table returns the storage table name.
func (c *Collection) Table() string {
	return strings.ReplaceAll(c.SlugName(), "-", "_")
}

// SingularLabel returns the singular display label.
func (c *Collection) SingularLabel() string {
	if c.Labels != nil && c.Labels.Singular != "" {
		return c.Labels.Singular
	}
	return humanize(c.Name)
}

// PluralLabel returns the plural display label.
func (c *Collection) PluralLabel() string {
	if c.Labels != nil && c.Labels.Plural != "" {
		return c.Labels.Plural
	}
	return humanize(inflect.Pluralize(c.Name))
}

// HasTimestamps reports whether createdAt and updatedAt are maintained.
func (c *Collection) HasTimestamps() bool {
	return c.Timestamps == nil || *c.Timestamps
}

// Field returns the field with the given name.
func (c *Collection) Field(name string) (*Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// FieldNames returns the field names in declaration order.
func (c *Collection) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// Queryable reports whether name can be used in a filter or sort.
func (c *Collection) Queryable(name string) bool {
	if name == FieldID || c.HasTimestamps() && (name == FieldCreatedAt || name == FieldUpdatedAt) {
		return true
	}
	f, ok := c.Field(name)
	return ok && f.Kind != KindRichText
}

// ApplyDefaults returns a copy of rec with declared defaults filling absent fields.
func (c *Collection) ApplyDefaults(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec)+len(c.Fields))
	maps.Copy(out, rec)
	for _, f := range c.Fields {
		if _, ok := out[f.Name]; !ok && f.HasDefault() {
			out[f.Name] = cloneValue(f.Default)
		}
	}
	return out
}

// CheckRecord validates a record payload. When partial is true the payload
// is an update: absent fields are left untouched, but required fields
// cannot be cleared. All violations are joined in field order.
func (c *Collection) CheckRecord(rec map[string]any, partial bool) error {
	var errs []error
	keys := slices.Sorted(maps.Keys(rec))
	for _, k := range keys {
		if IsSystemField(k) {
			errs = append(errs, collectiongen.NewConstraintError(k, "field is managed by the runtime"))
			continue
		}
		if _, ok := c.Field(k); !ok {
			errs = append(errs, collectiongen.NewConstraintError(k, "unknown field for collection %s", c.Name))
		}
	}
	for _, f := range c.Fields {
		v, ok := rec[f.Name]
		switch {
		case ok && f.ReadOnly:
			errs = append(errs, collectiongen.NewConstraintError(f.Name, "field is read-only"))
		case f.Required && v == nil && (ok || !partial):
			errs = append(errs, collectiongen.NewConstraintError(f.Name, "field is required"))
		case ok:
			if err := f.Check(v); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// HookEvent names a point in the record lifecycle.
type HookEvent string

// Lifecycle events, in the order they fire.
const (
	BeforeValidate HookEvent = "beforeValidate"
	BeforeChange   HookEvent = "beforeChange"
	AfterChange    HookEvent = "afterChange"
	BeforeRead     HookEvent = "beforeRead"
	AfterRead      HookEvent = "afterRead"
	BeforeDelete   HookEvent = "beforeDelete"
	AfterDelete    HookEvent = "afterDelete"
)

// HookEvents returns all lifecycle events in firing order.
func HookEvents() []HookEvent {
	return []HookEvent{BeforeValidate, BeforeChange, AfterChange, BeforeRead, AfterRead, BeforeDelete, AfterDelete}
}

// Valid reports whether e is a known event.
func (e HookEvent) Valid() bool {
	return slices.Contains(HookEvents(), e)
}

// Hooks maps lifecycle events to hook names. The names are resolved by the
// target: imported from the hooks module in generated TypeScript, looked up
// in a hook registry by runtime/store.
type Hooks map[HookEvent][]string

// Clone returns a deep copy.
func (h Hooks) Clone() Hooks {
	if h == nil {
		return nil
	}
	n := make(Hooks, len(h))
	for k, v := range h {
		n[k] = slices.Clone(v)
	}
	return n
}

// Names returns every distinct hook name, sorted.
func (h Hooks) Names() []string {
	var names []string
	for _, e := range HookEvents() {
		for _, n := range h[e] {
			if !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
	}
	slices.Sort(names)
	return names
}

// humanize turns "CustomerNote" into "Customer Note".
func humanize(name string) string {
	words := strings.Split(inflect.Underscore(name), "_")
	return cases.Title(language.English).String(strings.Join(words, " "))
}
