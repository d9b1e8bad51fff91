package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/modernmen/collectiongen/compiler/gen"
)

var (
	ctx     = jen.Id("ctx").Qual("context", "Context")
	idParam = jen.Id("id").String()
)

// genServiceType renders the service struct and its constructor.
func genServiceType(f *jen.File, t *gen.Type) string {
	name := t.TypeName() + "Service"
	f.Commentf("%s runs %s operations against a store.", name, t.Name)
	f.Type().Id(name).Struct(
		jen.Id("c").Op("*").Qual(storePkg, "Collection"),
	)

	f.Commentf("NewService binds Collection to st. It fails when a declared hook")
	f.Comment("is not registered in the store.")
	f.Func().Id("NewService").Params(jen.Id("st").Op("*").Qual(storePkg, "Store")).Params(jen.Op("*").Id(name), jen.Error()).Block(
		jen.List(jen.Id("c"), jen.Err()).Op(":=").Id("st").Dot("Collection").Call(jen.Id("Collection")),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
		jen.Return(jen.Op("&").Id(name).Values(jen.Dict{jen.Id("c"): jen.Id("c")}), jen.Nil()),
	)

	f.Comment("Collection returns the underlying store collection.")
	f.Func().Params(jen.Id("s").Op("*").Id(name)).Id("Collection").Params().Op("*").Qual(storePkg, "Collection").Block(
		jen.Return(jen.Id("s").Dot("c")),
	)
	return name
}

// genCommon renders the operations that do not depend on the entity type.
func genCommon(f *jen.File, t *gen.Type, name string) {
	recv := jen.Id("s").Op("*").Id(name)

	f.Commentf("Delete removes the %s with the given id.", t.Label())
	f.Func().Params(recv.Clone()).Id("Delete").Params(ctx.Clone(), idParam.Clone()).Error().Block(
		jen.Return(jen.Id("s").Dot("c").Dot("Delete").Call(jen.Id("ctx"), jen.Id("id"))),
	)

	f.Commentf("Count returns the number of %s matching the predicates.", t.PluralLabel())
	f.Func().Params(recv.Clone()).Id("Count").Params(ctx.Clone(), jen.Id("filter").Op("...").Qual(queryPkg, "Predicate")).Params(jen.Int(), jen.Error()).Block(
		jen.Return(jen.Id("s").Dot("c").Dot("Count").Call(jen.Id("ctx"), jen.Id("filter").Op("..."))),
	)

	f.Commentf("Exists reports whether a %s with the given id exists.", t.Label())
	f.Func().Params(recv.Clone()).Id("Exists").Params(ctx.Clone(), idParam.Clone()).Params(jen.Bool(), jen.Error()).Block(
		jen.Return(jen.Id("s").Dot("c").Dot("Exists").Call(jen.Id("ctx"), jen.Id("id"))),
	)
}

// genTypedService renders a service speaking the generated types.
func genTypedService(f *jen.File, t *gen.Type) {
	name := genServiceType(f, t)
	entity := t.TypeName()
	page := entity + "Page"
	recv := jen.Id("s").Op("*").Id(name)
	ret := func() []jen.Code { return []jen.Code{jen.Op("*").Id(entity), jen.Error()} }
	errReturn := jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))

	f.Commentf("%s is one page of %s.", page, t.PluralLabel())
	f.Type().Id(page).Struct(
		jen.Id("Items").Index().Op("*").Id(entity).Tag(map[string]string{"json": "docs"}),
		jen.Id("Total").Int().Tag(map[string]string{"json": "totalDocs"}),
		jen.Id("Page").Int().Tag(map[string]string{"json": "page"}),
		jen.Id("PageSize").Int().Tag(map[string]string{"json": "limit"}),
		jen.Id("TotalPages").Int().Tag(map[string]string{"json": "totalPages"}),
		jen.Id("HasNext").Bool().Tag(map[string]string{"json": "hasNextPage"}),
		jen.Id("HasPrev").Bool().Tag(map[string]string{"json": "hasPrevPage"}),
	)

	f.Commentf("List returns one page of the %s matching opts.", t.PluralLabel())
	f.Func().Params(recv.Clone()).Id("List").Params(ctx.Clone(), jen.Id("opts").Qual(queryPkg, "Options")).Params(jen.Op("*").Id(page), jen.Error()).Block(
		jen.List(jen.Id("p"), jen.Err()).Op(":=").Id("s").Dot("c").Dot("List").Call(jen.Id("ctx"), jen.Id("opts")),
		errReturn.Clone(),
		jen.Id("items").Op(":=").Make(jen.Index().Op("*").Id(entity), jen.Len(jen.Id("p").Dot("Records"))),
		jen.For(jen.List(jen.Id("i"), jen.Id("r")).Op(":=").Range().Id("p").Dot("Records")).Block(
			jen.If(jen.List(jen.Id("items").Index(jen.Id("i")), jen.Err()).Op("=").Id("decode").Call(jen.Id("r")), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Err()),
			),
		),
		jen.Return(jen.Op("&").Id(page).Values(jen.Dict{
			jen.Id("Items"):      jen.Id("items"),
			jen.Id("Total"):      jen.Id("p").Dot("Total"),
			jen.Id("Page"):       jen.Id("p").Dot("Page"),
			jen.Id("PageSize"):   jen.Id("p").Dot("PageSize"),
			jen.Id("TotalPages"): jen.Id("p").Dot("TotalPages"),
			jen.Id("HasNext"):    jen.Id("p").Dot("HasNext"),
			jen.Id("HasPrev"):    jen.Id("p").Dot("HasPrev"),
		}), jen.Nil()),
	)

	f.Commentf("Get returns the %s with the given id.", t.Label())
	f.Func().Params(recv.Clone()).Id("Get").Params(ctx.Clone(), idParam.Clone()).Params(ret()...).Block(
		jen.List(jen.Id("r"), jen.Err()).Op(":=").Id("s").Dot("c").Dot("Get").Call(jen.Id("ctx"), jen.Id("id")),
		errReturn.Clone(),
		jen.Return(jen.Id("decode").Call(jen.Id("r"))),
	)

	f.Commentf("Create stores a new %s.", t.Label())
	f.Func().Params(recv.Clone()).Id("Create").Params(ctx.Clone(), jen.Id("in").Op("*").Id(entity+"Create")).Params(ret()...).Block(
		jen.List(jen.Id("data"), jen.Err()).Op(":=").Qual(storePkg, "Encode").Call(jen.Id("in")),
		errReturn.Clone(),
		jen.List(jen.Id("r"), jen.Err()).Op(":=").Id("s").Dot("c").Dot("Create").Call(jen.Id("ctx"), jen.Id("data")),
		errReturn.Clone(),
		jen.Return(jen.Id("decode").Call(jen.Id("r"))),
	)

	f.Commentf("Update applies the non nil fields of in to the %s with the given id.", t.Label())
	f.Func().Params(recv.Clone()).Id("Update").Params(ctx.Clone(), idParam.Clone(), jen.Id("in").Op("*").Id(entity+"Update")).Params(ret()...).Block(
		jen.List(jen.Id("data"), jen.Err()).Op(":=").Qual(storePkg, "Encode").Call(jen.Id("in")),
		errReturn.Clone(),
		jen.List(jen.Id("r"), jen.Err()).Op(":=").Id("s").Dot("c").Dot("Update").Call(jen.Id("ctx"), jen.Id("id"), jen.Id("data")),
		errReturn.Clone(),
		jen.Return(jen.Id("decode").Call(jen.Id("r"))),
	)

	genCommon(f, t, name)

	f.Func().Id("decode").Params(jen.Id("r").Qual(storePkg, "Record")).Params(ret()...).Block(
		jen.Var().Id("v").Id(entity),
		jen.If(jen.Err().Op(":=").Qual(storePkg, "Decode").Call(jen.Id("r"), jen.Op("&").Id("v")), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Op("&").Id("v"), jen.Nil()),
	)
}

// genRecordService renders a service speaking store records, used when
// type declarations are disabled.
func genRecordService(f *jen.File, t *gen.Type) {
	name := genServiceType(f, t)
	recv := jen.Id("s").Op("*").Id(name)
	record := jen.Qual(storePkg, "Record")
	ret := func() []jen.Code { return []jen.Code{record.Clone(), jen.Error()} }

	f.Commentf("List returns one page of the %s matching opts.", t.PluralLabel())
	f.Func().Params(recv.Clone()).Id("List").Params(ctx.Clone(), jen.Id("opts").Qual(queryPkg, "Options")).Params(jen.Op("*").Qual(storePkg, "Page"), jen.Error()).Block(
		jen.Return(jen.Id("s").Dot("c").Dot("List").Call(jen.Id("ctx"), jen.Id("opts"))),
	)

	f.Commentf("Get returns the %s with the given id.", t.Label())
	f.Func().Params(recv.Clone()).Id("Get").Params(ctx.Clone(), idParam.Clone()).Params(ret()...).Block(
		jen.Return(jen.Id("s").Dot("c").Dot("Get").Call(jen.Id("ctx"), jen.Id("id"))),
	)

	f.Commentf("Create stores a new %s.", t.Label())
	f.Func().Params(recv.Clone()).Id("Create").Params(ctx.Clone(), jen.Id("data").Add(record.Clone())).Params(ret()...).Block(
		jen.Return(jen.Id("s").Dot("c").Dot("Create").Call(jen.Id("ctx"), jen.Id("data"))),
	)

	f.Commentf("Update applies a partial update to the %s with the given id.", t.Label())
	f.Func().Params(recv.Clone()).Id("Update").Params(ctx.Clone(), idParam.Clone(), jen.Id("data").Add(record.Clone())).Params(ret()...).Block(
		jen.Return(jen.Id("s").Dot("c").Dot("Update").Call(jen.Id("ctx"), jen.Id("id"), jen.Id("data"))),
	)

	genCommon(f, t, name)
}
