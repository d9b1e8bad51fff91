package golang

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/modernmen/collectiongen/compiler/gen"
	"github.com/modernmen/collectiongen/schema"
)

// genCollection renders the definition variable and the name constants.
func genCollection(f *jen.File, t *gen.Type) error {
	f.Const().DefsFunc(func(g *jen.Group) {
		g.Comment("Table is the storage table of the collection.")
		g.Id("Table").Op("=").Lit(t.Table())
		g.Comment("Field names, including the fields maintained by the store.")
		g.Id("FieldID").Op("=").Lit(schema.FieldID)
		for _, fd := range t.Fields {
			g.Id("Field" + fd.StructField()).Op("=").Lit(fd.Name)
		}
		if t.HasTimestamps() {
			g.Id("FieldCreatedAt").Op("=").Lit(schema.FieldCreatedAt)
			g.Id("FieldUpdatedAt").Op("=").Lit(schema.FieldUpdatedAt)
		}
	})

	var fields []jen.Code
	for _, fd := range t.Fields {
		c, err := descriptor(fd)
		if err != nil {
			return err
		}
		fields = append(fields, jen.Line().Add(c))
	}
	fields = append(fields, jen.Line())

	f.Commentf("Collection is the definition of the %s collection.", t.Name)
	f.Var().Id("Collection").Op("=").Op("&").Qual(schemaPkg, "Collection").Values(jen.DictFunc(func(d jen.Dict) {
		def := t.Definition()
		d[jen.Id("Name")] = jen.Lit(t.Name)
		d[jen.Id("Slug")] = jen.Lit(t.Slug)
		if def.Description != "" {
			d[jen.Id("Description")] = jen.Lit(def.Description)
		}
		if l := def.Labels; l != nil {
			d[jen.Id("Labels")] = jen.Op("&").Qual(schemaPkg, "Labels").Values(jen.DictFunc(func(d jen.Dict) {
				if l.Singular != "" {
					d[jen.Id("Singular")] = jen.Lit(l.Singular)
				}
				if l.Plural != "" {
					d[jen.Id("Plural")] = jen.Lit(l.Plural)
				}
			}))
		}
		if a := def.Admin; a != nil {
			d[jen.Id("Admin")] = jen.Op("&").Qual(schemaPkg, "Admin").Values(jen.DictFunc(func(d jen.Dict) {
				if a.UseAsTitle != "" {
					d[jen.Id("UseAsTitle")] = jen.Lit(a.UseAsTitle)
				}
				if len(a.DefaultColumns) > 0 {
					d[jen.Id("DefaultColumns")] = jen.Index().String().Values(lits(a.DefaultColumns)...)
				}
				if a.Group != "" {
					d[jen.Id("Group")] = jen.Lit(a.Group)
				}
			}))
		}
		if access := accessLiteral(def.Access); access != nil {
			d[jen.Id("Access")] = access
		}
		if len(def.Hooks) > 0 {
			d[jen.Id("Hooks")] = jen.Qual(schemaPkg, "Hooks").Values(jen.DictFunc(func(d jen.Dict) {
				for _, e := range schema.HookEvents() {
					if names := def.Hooks[e]; len(names) > 0 {
						d[jen.Qual(schemaPkg, exported(string(e)))] = jen.Values(lits(names)...)
					}
				}
			}))
		}
		if !t.HasTimestamps() {
			d[jen.Id("Timestamps")] = jen.New(jen.Bool())
		}
		d[jen.Id("Fields")] = jen.Index().Op("*").Qual(schemaPkg, "Field").Values(fields...)
	}))
	return nil
}

// accessLiteral renders the declared rules, or nil when none is declared.
func accessLiteral(a schema.Access) jen.Code {
	rules := []struct {
		name string
		rule schema.AccessRule
	}{
		{"Create", a.Create},
		{"Read", a.Read},
		{"Update", a.Update},
		{"Delete", a.Delete},
	}
	d := jen.Dict{}
	for _, r := range rules {
		if r.rule != "" {
			d[jen.Id(r.name)] = ruleLiteral(r.rule)
		}
	}
	if len(d) == 0 {
		return nil
	}
	return jen.Qual(schemaPkg, "Access").Values(d)
}

func ruleLiteral(r schema.AccessRule) jen.Code {
	switch r {
	case schema.Public:
		return jen.Qual(schemaPkg, "Public")
	case schema.Authenticated:
		return jen.Qual(schemaPkg, "Authenticated")
	case schema.AdminOnly:
		return jen.Qual(schemaPkg, "AdminOnly")
	}
	return jen.Qual(schemaPkg, "Roles").Call(lits(r.Roles())...)
}

var builders = map[schema.Kind]string{
	schema.KindText:     "Text",
	schema.KindNumber:   "Number",
	schema.KindBoolean:  "Boolean",
	schema.KindDate:     "Date",
	schema.KindRichText: "RichText",
}

// descriptor renders a field as a schema/field builder chain.
func descriptor(fd *gen.Field) (jen.Code, error) {
	def := fd.Definition()
	var c *jen.Statement
	switch fd.Kind {
	case schema.KindRelation:
		c = jen.Qual(fieldPkg, "Relation").Call(jen.Lit(def.Name), jen.Lit(def.RelationTo))
	case schema.KindSelect:
		c = jen.Qual(fieldPkg, "Select").Call(append([]jen.Code{jen.Lit(def.Name)}, lits(def.Options)...)...)
	default:
		name, ok := builders[fd.Kind]
		if !ok {
			return nil, fmt.Errorf("golang: field %s: unsupported kind %q", def.Name, fd.Kind)
		}
		c = jen.Qual(fieldPkg, name).Call(jen.Lit(def.Name))
	}
	if def.Required {
		c.Dot("Required").Call()
	}
	if def.Unique {
		c.Dot("Unique").Call()
	}
	if def.Index {
		c.Dot("Index").Call()
	}
	if def.ReadOnly {
		c.Dot("ReadOnly").Call()
	}
	if def.HasMany {
		c.Dot("HasMany").Call()
	}
	if cs := def.Constraint; cs != nil {
		text := fd.Kind == schema.KindText
		if cs.Min != nil {
			bound(c, "Min", *cs.Min, text)
		}
		if cs.Max != nil {
			bound(c, "Max", *cs.Max, text)
		}
		if cs.Pattern != "" {
			c.Dot("Match").Call(jen.Lit(cs.Pattern))
		}
	}
	if def.Default != nil {
		v, err := literal(def.Default)
		if err != nil {
			return nil, fmt.Errorf("golang: field %s default: %w", def.Name, err)
		}
		c.Dot("Default").Call(v)
	}
	if def.Label != "" {
		c.Dot("Label").Call(jen.Lit(def.Label))
	}
	if def.Description != "" {
		c.Dot("Comment").Call(jen.Lit(def.Description))
	}
	return c.Dot("Descriptor").Call(), nil
}

// bound appends a Min or Max call. Whole text bounds use MinLen and MaxLen.
func bound(c *jen.Statement, name string, v float64, text bool) {
	if text && v == math.Trunc(v) {
		c.Dot(name + "Len").Call(jen.Lit(int(v)))
		return
	}
	c.Dot(name).Call(jen.Lit(v))
}

// literal renders a default value as a Go literal.
func literal(v any) (jen.Code, error) {
	switch v := v.(type) {
	case nil:
		return jen.Nil(), nil
	case string, bool, int, int64, float64:
		return jen.Lit(v), nil
	case uint64:
		return jen.Lit(v), nil
	case []string:
		return jen.Index().String().Values(lits(v)...), nil
	case []any:
		items := make([]jen.Code, len(v))
		for i, item := range v {
			c, err := literal(item)
			if err != nil {
				return nil, err
			}
			items[i] = c
		}
		return jen.Index().Any().Values(items...), nil
	case map[string]any:
		d := jen.Dict{}
		for _, k := range slices.Sorted(maps.Keys(v)) {
			c, err := literal(v[k])
			if err != nil {
				return nil, err
			}
			d[jen.Lit(k)] = c
		}
		return jen.Map(jen.String()).Any().Values(d), nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

func lits(vs []string) []jen.Code {
	out := make([]jen.Code, len(vs))
	for i, v := range vs {
		out[i] = jen.Lit(v)
	}
	return out
}

// exported turns "beforeChange" into "BeforeChange".
func exported(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
