package gen

import (
	"errors"
	"fmt"
	"go/token"
	"maps"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/modernmen/collectiongen/schema"
)

// Graph holds the validated collections of a batch and the names of
// collections declared elsewhere.
type Graph struct {
	*Config
	// Nodes are the valid collections in declaration order.
	Nodes    []*Type
	nodes    map[string]*Type
	declared []string
	external map[string]bool
}

var (
	fieldNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	slugRe      = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
	selectOptRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _-]*$`)
)

// maxNameBytes is the identifier limit shared by Postgres and MySQL.
const maxNameBytes = 63

// NewGraph validates the collections and builds the graph. Every declared
// collection and every external name is a valid relation target, so
// collections may reference each other in any order.
//
// Invalid collections are left out of the graph and reported together as
// ValidationErrors joined in declaration order. The returned graph is
// usable for the valid collections even when the error is non-nil.
func NewGraph(c *Config, collections ...*schema.Collection) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	g := &Graph{
		Config:   c,
		nodes:    make(map[string]*Type),
		external: make(map[string]bool),
	}
	for _, n := range c.External {
		g.external[n] = true
	}
	var errs []error
	seen := make(map[string]bool)
	slugs := make(map[string]string)
	for i, def := range collections {
		if def == nil {
			errs = append(errs, NewValidationError("", "", nil, fmt.Sprintf("collection at index %d is nil", i)))
			continue
		}
		if def.Name != "" && seen[def.Name] {
			errs = append(errs, NewValidationError(def.Name, "", nil, "collection declared more than once"))
			continue
		}
		seen[def.Name] = true
		g.declared = append(g.declared, def.Name)
	}
	seen = make(map[string]bool)
	for _, def := range collections {
		if def == nil || seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		if err := g.Validate(def); err != nil {
			c.logger().Debug("collection rejected", zap.String("collection", def.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		slug := def.SlugName()
		if other, ok := slugs[slug]; ok {
			errs = append(errs, NewValidationError(def.Name, "", slug, fmt.Sprintf("slug collides with collection %s", other)))
			continue
		}
		slugs[slug] = def.Name
		t := newType(c, def.Clone())
		g.Nodes = append(g.Nodes, t)
		g.nodes[t.Name] = t
	}
	g.resolve()
	return g, errors.Join(errs...)
}

// Type returns the validated type with the given collection name.
func (g *Graph) Type(name string) (*Type, bool) {
	t, ok := g.nodes[name]
	return t, ok
}

// Names returns the names of the valid collections in declaration order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.Nodes))
	for i, t := range g.Nodes {
		names[i] = t.Name
	}
	return names
}

// IsDeclared reports whether name is a collection of the batch or an
// external collection.
func (g *Graph) IsDeclared(name string) bool {
	return g.external[name] || slices.Contains(g.declared, name)
}

func newType(c *Config, def *schema.Collection) *Type {
	t := &Type{
		Config: c,
		def:    def,
		Name:   def.Name,
		Slug:   def.SlugName(),
		fields: make(map[string]*Field, len(def.Fields)),
	}
	for _, fd := range def.Fields {
		fd.Kind = schema.ParseKind(string(fd.Kind))
		f := &Field{def: fd, typ: t, Name: fd.Name, Kind: fd.Kind}
		t.Fields = append(t.Fields, f)
		t.fields[f.Name] = f
	}
	return t
}

// resolve links relation fields to their targets.
func (g *Graph) resolve() {
	for _, t := range g.Nodes {
		for _, f := range t.Fields {
			if !f.IsRelation() {
				continue
			}
			f.RefName = f.def.RelationTo
			if ref, ok := g.nodes[f.RefName]; ok {
				f.Ref = ref
				f.RefSlug = ref.Slug
				continue
			}
			f.RefSlug = (&schema.Collection{Name: f.RefName}).SlugName()
		}
	}
}

// Validate checks a single collection definition against the graph's
// declared names. All violations are reported, joined in field order.
func (g *Graph) Validate(c *schema.Collection) error {
	v := &validator{g: g, c: c}
	v.collection()
	return errors.Join(v.errs...)
}

type validator struct {
	g    *Graph
	c    *schema.Collection
	errs []error
}

func (v *validator) fail(field string, value any, format string, args ...any) *ValidationError {
	err := NewValidationError(v.c.Name, field, value, fmt.Sprintf(format, args...))
	v.errs = append(v.errs, err)
	return err
}

func (v *validator) collection() {
	c := v.c
	if err := ValidCollectionName(c.Name); err != nil {
		v.fail("", c.Name, "%v", err)
	}
	if c.Slug != "" && !slugRe.MatchString(c.Slug) {
		v.fail("", c.Slug, "slug %q must be lower-case words separated by dashes", c.Slug)
	}
	if len(c.Fields) == 0 {
		v.fail("", nil, "collection has no fields")
	}
	names := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		if f == nil {
			v.fail(fmt.Sprintf("#%d", i), nil, "field is nil")
			continue
		}
		if names[f.Name] {
			v.fail(f.Name, nil, "duplicate field name")
			continue
		}
		names[f.Name] = true
		v.field(f)
	}
	for _, op := range schema.Ops() {
		var r schema.AccessRule
		switch op {
		case schema.OpCreate:
			r = c.Access.Create
		case schema.OpRead:
			r = c.Access.Read
		case schema.OpUpdate:
			r = c.Access.Update
		case schema.OpDelete:
			r = c.Access.Delete
		}
		if r == "" {
			continue
		}
		if err := r.Validate(); err != nil {
			v.fail("", r, "access.%s: %v", op, err)
		}
	}
	for _, event := range slices.Sorted(maps.Keys(c.Hooks)) {
		if !event.Valid() {
			err := v.fail("", event, "unknown hook event %q", event)
			err.Suggestions = Suggest(string(event), hookEventNames())
		}
		for _, h := range c.Hooks[event] {
			if !token.IsIdentifier(h) {
				v.fail("", h, "hook name %q on %s is not a valid identifier", h, event)
			}
		}
	}
	if c.Admin != nil {
		known := append(c.FieldNames(), schema.SystemFields()...)
		if t := c.Admin.UseAsTitle; t != "" && !slices.Contains(known, t) {
			err := v.fail("", t, "admin.useAsTitle names unknown field %q", t)
			err.Suggestions = Suggest(t, known)
		}
		for _, col := range c.Admin.DefaultColumns {
			if !slices.Contains(known, col) {
				err := v.fail("", col, "admin.defaultColumns names unknown field %q", col)
				err.Suggestions = Suggest(col, known)
			}
		}
	}
}

func (v *validator) field(f *schema.Field) {
	switch {
	case f.Name == "":
		v.fail("", nil, "field name cannot be empty")
		return
	case !fieldNameRe.MatchString(f.Name) || len(f.Name) > maxNameBytes:
		v.fail(f.Name, nil, "field name must start with a letter or underscore and contain only letters, digits and underscores")
		return
	case schema.IsSystemField(f.Name):
		v.fail(f.Name, nil, "field name is reserved for the runtime")
		return
	}
	kind := schema.ParseKind(string(f.Kind))
	if !kind.Valid() {
		err := v.fail(f.Name, f.Kind, "unknown kind %q", string(f.Kind))
		err.Suggestions = Suggest(string(f.Kind), kindNames())
		return
	}
	if kind == schema.KindRelation {
		switch {
		case f.RelationTo == "":
			v.fail(f.Name, nil, "relation field requires relationTo")
		case !v.g.IsDeclared(f.RelationTo):
			err := v.fail(f.Name, f.RelationTo, "relation target %q is not a declared collection", f.RelationTo)
			err.Suggestions = Suggest(f.RelationTo, v.g.targets())
		}
	} else if f.RelationTo != "" {
		v.fail(f.Name, f.RelationTo, "relationTo is only valid on relation fields")
	}
	if f.HasMany && kind != schema.KindRelation && kind != schema.KindSelect {
		v.fail(f.Name, nil, "hasMany is only valid on relation and select fields")
	}
	if kind == schema.KindSelect {
		v.options(f)
	} else if len(f.Options) > 0 {
		v.fail(f.Name, f.Options, "options are only valid on select fields")
	}
	v.constraint(f, kind)
	if f.HasDefault() {
		probe := f.Clone()
		probe.Kind = kind
		if err := probe.Check(f.Default); err != nil {
			ve := v.fail(f.Name, f.Default, "invalid default value")
			ve.Cause = err
		}
	}
}

func (v *validator) options(f *schema.Field) {
	if len(f.Options) == 0 {
		v.fail(f.Name, nil, "select field requires at least one option")
		return
	}
	consts := make(map[string]string, len(f.Options))
	for _, o := range f.Options {
		if !selectOptRe.MatchString(o) {
			v.fail(f.Name, o, "select option %q must start with a letter or digit and contain only letters, digits, spaces, dashes and underscores", o)
			continue
		}
		c := pascal(o)
		if prev, ok := consts[c]; ok {
			v.fail(f.Name, o, "select option %q collides with %q", o, prev)
			continue
		}
		consts[c] = o
	}
}

func (v *validator) constraint(f *schema.Field, kind schema.Kind) {
	c := f.Constraint
	if c.IsZero() {
		return
	}
	if (c.Min != nil || c.Max != nil) && kind != schema.KindText && kind != schema.KindNumber {
		v.fail(f.Name, nil, "min and max apply to text and number fields only")
	}
	if kind == schema.KindText {
		for _, b := range []*float64{c.Min, c.Max} {
			if b != nil && (*b < 0 || *b != float64(int64(*b))) {
				v.fail(f.Name, *b, "text length bounds must be non-negative integers")
			}
		}
	}
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		v.fail(f.Name, nil, "min %v is greater than max %v", *c.Min, *c.Max)
	}
	if c.Pattern != "" {
		if kind != schema.KindText {
			v.fail(f.Name, c.Pattern, "pattern applies to text fields only")
		} else if _, err := regexp.Compile(c.Pattern); err != nil {
			ve := v.fail(f.Name, c.Pattern, "pattern does not compile")
			ve.Cause = err
		}
	}
}

// targets returns every valid relation target name.
func (g *Graph) targets() []string {
	names := slices.Clone(g.declared)
	for n := range g.external {
		names = append(names, n)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func kindNames() []string {
	names := make([]string, 0, len(schema.Kinds())+3)
	for _, k := range schema.Kinds() {
		names = append(names, string(k))
	}
	return append(names, "checkbox", "relationship", "richText")
}

func hookEventNames() []string {
	names := make([]string, 0, len(schema.HookEvents()))
	for _, e := range schema.HookEvents() {
		names = append(names, string(e))
	}
	return names
}

// ValidCollectionName reports whether name can be used as a collection
// name by every target: an exported-style identifier of letters and
// digits. Targets that derive identifiers from it, such as Go package
// names, resolve clashes with their language themselves.
func ValidCollectionName(name string) error {
	if name == "" {
		return errors.New("collection name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("collection name %q contains path separator characters", name)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("collection name %q cannot start with a dot", name)
	}
	if !token.IsIdentifier(name) || strings.Contains(name, "_") {
		return fmt.Errorf("collection name %q must be a letters and digits identifier", name)
	}
	if len(name) > maxNameBytes {
		return fmt.Errorf("collection name %q is longer than %d bytes", name, maxNameBytes)
	}
	if first := name[0]; first < 'A' || first > 'Z' {
		return fmt.Errorf("collection name %q must start with an upper-case letter", name)
	}
	return nil
}
