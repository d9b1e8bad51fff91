package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/modernmen/collectiongen/compiler/gen"
	"github.com/modernmen/collectiongen/schema"
)

// genTypes renders the select enums, the entity and the input structs.
func genTypes(f *jen.File, t *gen.Type) {
	for _, fd := range t.SelectFields() {
		genEnum(f, fd)
	}

	f.Commentf("%s is the model entity for the %s collection.", t.TypeName(), t.Name)
	f.Type().Id(t.TypeName()).StructFunc(func(g *jen.Group) {
		g.Id("ID").String().Tag(map[string]string{"json": schema.FieldID})
		for _, fd := range t.Fields {
			optional := fd.Optional()
			g.Id(fd.StructField()).Add(goType(fd, optional)).Tag(jsonTag(fd.Name, optional))
		}
		if t.HasTimestamps() {
			g.Id("CreatedAt").Qual("time", "Time").Tag(map[string]string{"json": schema.FieldCreatedAt})
			g.Id("UpdatedAt").Qual("time", "Time").Tag(map[string]string{"json": schema.FieldUpdatedAt})
		}
	})

	f.Commentf("%sCreate holds the fields of a new %s. Nil fields take", t.TypeName(), t.Label())
	f.Comment("their declared default.")
	f.Type().Id(t.TypeName() + "Create").StructFunc(func(g *jen.Group) {
		for _, fd := range t.MutableFields() {
			optional := !fd.Required() || fd.HasDefault()
			g.Id(fd.StructField()).Add(goType(fd, optional)).Tag(jsonTag(fd.Name, optional))
		}
	})

	f.Commentf("%sUpdate holds a partial update of a %s. Nil fields", t.TypeName(), t.Label())
	f.Comment("are left unchanged.")
	f.Type().Id(t.TypeName() + "Update").StructFunc(func(g *jen.Group) {
		for _, fd := range t.MutableFields() {
			g.Id(fd.StructField()).Add(goType(fd, true)).Tag(jsonTag(fd.Name, true))
		}
	})
}

func genEnum(f *jen.File, fd *gen.Field) {
	name := fd.EnumName()
	f.Commentf("%s is the type of the %s field.", name, fd.Name)
	f.Type().Id(name).String()

	f.Commentf("%s values.", name)
	f.Const().DefsFunc(func(g *jen.Group) {
		for _, opt := range fd.Options() {
			g.Id(fd.EnumConst(opt)).Id(name).Op("=").Lit(opt)
		}
	})

	f.Commentf("%sValues returns the allowed values in declaration order.", name)
	f.Func().Id(name+"Values").Params().Index().Id(name).Block(
		jen.Return(jen.Index().Id(name).ValuesFunc(func(g *jen.Group) {
			for _, opt := range fd.Options() {
				g.Id(fd.EnumConst(opt))
			}
		})),
	)

	f.Func().Params(jen.Id("v").Id(name)).Id("String").Params().String().Block(
		jen.Return(jen.String().Call(jen.Id("v"))),
	)

	f.Commentf("Valid reports whether v is one of the allowed values.")
	f.Func().Params(jen.Id("v").Id(name)).Id("Valid").Params().Bool().Block(
		jen.Switch(jen.Id("v")).Block(
			jen.CaseFunc(func(g *jen.Group) {
				for _, opt := range fd.Options() {
					g.Id(fd.EnumConst(opt))
				}
			}).Block(jen.Return(jen.True())),
		),
		jen.Return(jen.False()),
	)
}

// goType returns the Go type of a field. Optional scalars are pointers;
// lists and rich text carry their own nil value.
func goType(fd *gen.Field, optional bool) jen.Code {
	var base *jen.Statement
	switch fd.Kind {
	case schema.KindNumber:
		base = jen.Float64()
	case schema.KindBoolean:
		base = jen.Bool()
	case schema.KindDate:
		base = jen.Qual("time", "Time")
	case schema.KindSelect:
		base = jen.Id(fd.EnumName())
	case schema.KindRichText:
		return jen.Qual("encoding/json", "RawMessage")
	default:
		base = jen.String()
	}
	if fd.HasMany() {
		return jen.Index().Add(base)
	}
	if optional {
		return jen.Op("*").Add(base)
	}
	return base
}

func jsonTag(name string, optional bool) map[string]string {
	if optional {
		name += ",omitempty"
	}
	return map[string]string{"json": name}
}
