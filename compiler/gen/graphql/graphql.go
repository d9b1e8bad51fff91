// Package graphql renders a GraphQL SDL document per collection. Each
// document is self-contained: it declares the scalars it uses together
// with the Query and Mutation root types of the collection.
package graphql

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/modernmen/collectiongen/compiler/gen"
	"github.com/modernmen/collectiongen/schema"
)

// Name identifies the emitter and the kind of its artifacts.
const Name = "graphql"

// Custom scalars.
const (
	DateTime = "DateTime"
	JSON     = "JSON"
)

// Emitter renders graphql/<slug>.graphql.
type Emitter struct{}

// New returns a GraphQL emitter.
func New() *Emitter { return &Emitter{} }

// Name implements gen.Emitter.
func (*Emitter) Name() string { return Name }

// Emit implements gen.Emitter. The document is loaded with gqlparser
// before it is returned.
func (e *Emitter) Emit(t *gen.Type) (*gen.Artifact, error) {
	p := path.Join("graphql", t.Slug+".graphql")
	var b bytes.Buffer
	if t.Header != "" {
		fmt.Fprintf(&b, "# %s\n\n", t.Header)
	}
	formatter.NewFormatter(&b).FormatSchemaDocument(Document(t))
	if _, err := gqlparser.LoadSchema(&ast.Source{Name: p, Input: b.String()}); err != nil {
		return nil, fmt.Errorf("graphql: invalid document for %s: %w", t.Name, err)
	}
	return &gen.Artifact{Kind: Name, Path: p, Content: b.Bytes()}, nil
}

// Document builds the schema document of a collection.
func Document(t *gen.Type) *ast.SchemaDocument {
	doc := &ast.SchemaDocument{}
	add := func(d *ast.Definition) { doc.Definitions = append(doc.Definitions, d) }

	if usesDateTime(t) {
		add(&ast.Definition{Kind: ast.Scalar, Name: DateTime, Description: "RFC 3339 date and time."})
	}
	add(&ast.Definition{Kind: ast.Scalar, Name: JSON})
	for _, fd := range t.SelectFields() {
		add(enum(fd))
	}
	add(entity(t))
	add(input(t, t.TypeName()+"CreateInput", true))
	add(input(t, t.TypeName()+"UpdateInput", false))
	add(page(t))
	add(queries(t))
	add(mutations(t))
	return doc
}

func usesDateTime(t *gen.Type) bool {
	if t.HasTimestamps() {
		return true
	}
	_, ok := t.FieldBy(func(f *gen.Field) bool { return f.IsDate() })
	return ok
}

func enum(fd *gen.Field) *ast.Definition {
	d := &ast.Definition{Kind: ast.Enum, Name: fd.EnumName()}
	for _, opt := range fd.Options() {
		d.EnumValues = append(d.EnumValues, &ast.EnumValueDefinition{
			Name:        EnumValue(opt),
			Description: quoteIfRenamed(opt),
		})
	}
	return d
}

// quoteIfRenamed documents the stored value of enum values whose GraphQL
// name differs from it.
func quoteIfRenamed(opt string) string {
	if EnumValue(opt) == opt {
		return ""
	}
	return fmt.Sprintf("Stored as %q.", opt)
}

func entity(t *gen.Type) *ast.Definition {
	d := &ast.Definition{Kind: ast.Object, Name: t.TypeName(), Description: t.Description()}
	d.Fields = append(d.Fields, &ast.FieldDefinition{Name: schema.FieldID, Type: ast.NonNullNamedType("ID", nil)})
	for _, fd := range t.Fields {
		d.Fields = append(d.Fields, &ast.FieldDefinition{
			Name:        fd.Name,
			Description: fd.Description(),
			Type:        fieldType(fd, fd.Required()),
		})
	}
	if t.HasTimestamps() {
		for _, name := range []string{schema.FieldCreatedAt, schema.FieldUpdatedAt} {
			d.Fields = append(d.Fields, &ast.FieldDefinition{Name: name, Type: ast.NonNullNamedType(DateTime, nil)})
		}
	}
	return d
}

// input builds a create or update input. Create inputs require the
// required fields without a default; update inputs require nothing.
func input(t *gen.Type, name string, create bool) *ast.Definition {
	d := &ast.Definition{Kind: ast.InputObject, Name: name}
	for _, fd := range t.MutableFields() {
		d.Fields = append(d.Fields, &ast.FieldDefinition{
			Name: fd.Name,
			Type: fieldType(fd, create && fd.Required() && !fd.HasDefault()),
		})
	}
	if len(d.Fields) == 0 {
		d.Fields = append(d.Fields, &ast.FieldDefinition{Name: "_empty", Type: ast.NamedType("Boolean", nil)})
	}
	return d
}

func page(t *gen.Type) *ast.Definition {
	nonNull := func(name string) *ast.Type { return ast.NonNullNamedType(name, nil) }
	return &ast.Definition{
		Kind:        ast.Object,
		Name:        t.TypeName() + "Page",
		Description: fmt.Sprintf("One page of %s.", t.PluralLabel()),
		Fields: ast.FieldList{
			{Name: "docs", Type: ast.NonNullListType(nonNull(t.TypeName()), nil)},
			{Name: "totalDocs", Type: nonNull("Int")},
			{Name: "page", Type: nonNull("Int")},
			{Name: "limit", Type: nonNull("Int")},
			{Name: "totalPages", Type: nonNull("Int")},
			{Name: "hasNextPage", Type: nonNull("Boolean")},
			{Name: "hasPrevPage", Type: nonNull("Boolean")},
		},
	}
}

func queries(t *gen.Type) *ast.Definition {
	return &ast.Definition{
		Kind: ast.Object,
		Name: "Query",
		Fields: ast.FieldList{
			{
				Name: lowerFirst(t.PluralName()),
				Arguments: ast.ArgumentDefinitionList{
					{Name: "where", Type: ast.NamedType(JSON, nil)},
					{Name: "sort", Type: ast.NamedType("String", nil)},
					{Name: "page", Type: ast.NamedType("Int", nil), DefaultValue: &ast.Value{Kind: ast.IntValue, Raw: "1"}},
					{Name: "limit", Type: ast.NamedType("Int", nil), DefaultValue: &ast.Value{Kind: ast.IntValue, Raw: "10"}},
				},
				Type: ast.NonNullNamedType(t.TypeName()+"Page", nil),
			},
			{
				Name:      lowerFirst(t.TypeName()),
				Arguments: ast.ArgumentDefinitionList{idArg()},
				Type:      ast.NamedType(t.TypeName(), nil),
			},
			{
				Name:      "count" + t.PluralName(),
				Arguments: ast.ArgumentDefinitionList{{Name: "where", Type: ast.NamedType(JSON, nil)}},
				Type:      ast.NonNullNamedType("Int", nil),
			},
		},
	}
}

func mutations(t *gen.Type) *ast.Definition {
	name := t.TypeName()
	data := func(input string) *ast.ArgumentDefinition {
		return &ast.ArgumentDefinition{Name: "data", Type: ast.NonNullNamedType(input, nil)}
	}
	return &ast.Definition{
		Kind: ast.Object,
		Name: "Mutation",
		Fields: ast.FieldList{
			{
				Name:      "create" + name,
				Arguments: ast.ArgumentDefinitionList{data(name + "CreateInput")},
				Type:      ast.NonNullNamedType(name, nil),
			},
			{
				Name:      "update" + name,
				Arguments: ast.ArgumentDefinitionList{idArg(), data(name + "UpdateInput")},
				Type:      ast.NonNullNamedType(name, nil),
			},
			{
				Name:      "delete" + name,
				Arguments: ast.ArgumentDefinitionList{idArg()},
				Type:      ast.NonNullNamedType("Boolean", nil),
			},
		},
	}
}

func idArg() *ast.ArgumentDefinition {
	return &ast.ArgumentDefinition{Name: schema.FieldID, Type: ast.NonNullNamedType("ID", nil)}
}

// fieldType maps a field to its GraphQL type. List items are never null.
func fieldType(fd *gen.Field, required bool) *ast.Type {
	var named string
	switch fd.Kind {
	case schema.KindNumber:
		named = "Float"
	case schema.KindBoolean:
		named = "Boolean"
	case schema.KindDate:
		named = DateTime
	case schema.KindRichText:
		named = JSON
	case schema.KindRelation:
		named = "ID"
	case schema.KindSelect:
		named = fd.EnumName()
	default:
		named = "String"
	}
	if fd.HasMany() {
		elem := ast.NonNullNamedType(named, nil)
		if required {
			return ast.NonNullListType(elem, nil)
		}
		return ast.ListType(elem, nil)
	}
	if required {
		return ast.NonNullNamedType(named, nil)
	}
	return ast.NamedType(named, nil)
}

// EnumValue converts a select option to a GraphQL enum value name:
// "walkIn" becomes "WALK_IN" and "no-show" becomes "NO_SHOW".
func EnumValue(opt string) string {
	var b strings.Builder
	prev := '_'
	for i, r := range opt {
		switch {
		case unicode.IsUpper(r) && i > 0 && prev != '_' && !unicode.IsUpper(prev):
			b.WriteByte('_')
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		default:
			r = '_'
			b.WriteRune(r)
		}
		prev = r
	}
	s := b.String()
	if s == "" || unicode.IsDigit(rune(s[0])) {
		s = "_" + s
	}
	switch s {
	case "TRUE", "FALSE", "NULL":
		s += "_"
	}
	return s
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
