// Package payload renders collections as Payload CMS TypeScript modules:
// a CollectionConfig, a service over the Payload local API and optional
// type declarations.
package payload

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"text/template"

	"github.com/modernmen/collectiongen/compiler/gen"
)

// Name identifies the target.
const Name = "payload"

var (
	//go:embed template/*.tmpl
	templateFS embed.FS

	templates = template.Must(template.New(Name).
			Funcs(funcs).
			ParseFS(templateFS, "template/*.tmpl"))
)

// Translator renders Payload artifacts. The zero value is not usable;
// create one with New.
type Translator struct {
	hooksModule string
}

// Option configures a Translator.
type Option func(*Translator)

// WithHooksModule sets the module that hook functions are imported from,
// relative to the collections directory. Defaults to "../hooks".
func WithHooksModule(module string) Option {
	return func(t *Translator) {
		if module != "" {
			t.hooksModule = module
		}
	}
}

// New returns a Payload translator.
func New(opts ...Option) *Translator {
	t := &Translator{hooksModule: "../hooks"}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements gen.Translator.
func (*Translator) Name() string { return Name }

// Config renders collections/<PluralName>.ts.
func (tr *Translator) Config(t *gen.Type) (*gen.Artifact, error) {
	return tr.execute("config", gen.KindConfig, path.Join("collections", t.PluralName()+".ts"), t)
}

// Service renders services/<slug>.ts.
func (tr *Translator) Service(t *gen.Type) (*gen.Artifact, error) {
	return tr.execute("service", gen.KindService, path.Join("services", t.Slug+".ts"), t)
}

// Types renders types/<slug>.ts.
func (tr *Translator) Types(t *gen.Type) (*gen.Artifact, error) {
	return tr.execute("types", gen.KindTypes, path.Join("types", t.Slug+".ts"), t)
}

// data is passed to the templates.
type data struct {
	*gen.Type
	HooksModule string
	TypesModule string
}

func (tr *Translator) execute(name string, kind gen.ArtifactKind, p string, t *gen.Type) (*gen.Artifact, error) {
	var b bytes.Buffer
	d := &data{
		Type:        t,
		HooksModule: tr.hooksModule,
		TypesModule: "../types/" + t.Slug,
	}
	if err := templates.ExecuteTemplate(&b, name, d); err != nil {
		return nil, fmt.Errorf("payload: execute %s template: %w", name, err)
	}
	return &gen.Artifact{Kind: kind, Path: p, Content: b.Bytes()}, nil
}
