// Package golang renders collections as Go packages running on the
// runtime/store package: the collection definition, a typed service and
// the entity types.
package golang

import (
	"bytes"
	"fmt"
	"go/token"
	"path"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/modernmen/collectiongen/compiler/gen"
)

// Name identifies the target.
const Name = "go"

// Import paths of the runtime packages used by generated code.
const (
	schemaPkg = "github.com/modernmen/collectiongen/schema"
	fieldPkg  = "github.com/modernmen/collectiongen/schema/field"
	storePkg  = "github.com/modernmen/collectiongen/runtime/store"
	queryPkg  = "github.com/modernmen/collectiongen/query"
)

// Translator renders Go artifacts.
type Translator struct{}

// New returns a Go translator.
func New() *Translator { return &Translator{} }

// Name implements gen.Translator.
func (*Translator) Name() string { return Name }

// Config renders <pkg>/collection.go.
func (*Translator) Config(t *gen.Type) (*gen.Artifact, error) {
	f := newFile(t)
	if err := genCollection(f, t); err != nil {
		return nil, err
	}
	return render(f, gen.KindConfig, t, "collection.go")
}

// Service renders <pkg>/service.go.
func (*Translator) Service(t *gen.Type) (*gen.Artifact, error) {
	f := newFile(t)
	if t.Types {
		genTypedService(f, t)
	} else {
		genRecordService(f, t)
	}
	return render(f, gen.KindService, t, "service.go")
}

// Types renders <pkg>/types.go.
func (*Translator) Types(t *gen.Type) (*gen.Artifact, error) {
	f := newFile(t)
	genTypes(f, t)
	return render(f, gen.KindTypes, t, "types.go")
}

// PackageName returns the Go package name of a collection. Names that are
// keywords fall back to the slug without dashes.
func PackageName(t *gen.Type) string {
	if name := t.Package(); !token.IsKeyword(name) {
		return name
	}
	return strings.ReplaceAll(t.Slug, "-", "")
}

func newFile(t *gen.Type) *jen.File {
	f := jen.NewFile(PackageName(t))
	if t.Header != "" {
		f.HeaderComment(t.Header)
	}
	if t.Config.Package != "" {
		f.CanonicalPath = path.Join(t.Config.Package, PackageName(t))
	}
	f.ImportName(schemaPkg, "schema")
	f.ImportName(fieldPkg, "field")
	f.ImportName(storePkg, "store")
	f.ImportName(queryPkg, "query")
	return f
}

func render(f *jen.File, kind gen.ArtifactKind, t *gen.Type, name string) (*gen.Artifact, error) {
	var b bytes.Buffer
	if err := f.Render(&b); err != nil {
		return nil, fmt.Errorf("golang: render %s for %s: %w", name, t.Name, err)
	}
	return &gen.Artifact{Kind: kind, Path: path.Join(PackageName(t), name), Content: b.Bytes()}, nil
}
