package gen

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/modernmen/collectiongen/schema"
)

// ArtifactKind identifies the role of a generated artifact.
type ArtifactKind string

// Artifact kinds. Emitters use their own name as kind.
const (
	KindConfig  ArtifactKind = "config"
	KindService ArtifactKind = "service"
	KindTypes   ArtifactKind = "types"
)

// Artifact is one generated output unit.
type Artifact struct {
	Kind ArtifactKind
	// Path is slash separated and relative to the output directory.
	Path    string
	Content []byte
}

// Translator renders the per-collection artifacts for one host framework.
// Implementations must be deterministic and safe for concurrent use.
type Translator interface {
	// Name identifies the target, e.g. "payload".
	Name() string
	// Config renders the collection configuration.
	Config(*Type) (*Artifact, error)
	// Service renders the CRUD service module.
	Service(*Type) (*Artifact, error)
	// Types renders the type declarations.
	Types(*Type) (*Artifact, error)
}

// Emitter renders a target independent artifact for a collection.
type Emitter interface {
	Name() string
	Emit(*Type) (*Artifact, error)
}

// Result holds the artifacts generated for one collection.
type Result struct {
	Collection string
	Artifacts  []*Artifact
}

// Artifact returns the artifact of the given kind, or nil.
func (r *Result) Artifact(kind ArtifactKind) *Artifact {
	for _, a := range r.Artifacts {
		if a.Kind == kind {
			return a
		}
	}
	return nil
}

// Config returns the configuration artifact.
func (r *Result) Config() *Artifact { return r.Artifact(KindConfig) }

// Service returns the service module artifact.
func (r *Result) Service() *Artifact { return r.Artifact(KindService) }

// Types returns the type declarations artifact, or nil when disabled.
func (r *Result) Types() *Artifact { return r.Artifact(KindTypes) }

// Paths returns the artifact paths in generation order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Artifacts))
	for i, a := range r.Artifacts {
		paths[i] = a.Path
	}
	return paths
}

// Generator renders the artifacts of a graph.
type Generator struct {
	graph *Graph
}

// NewGenerator returns a generator for the graph. The graph config must
// name a target translator.
func NewGenerator(g *Graph) (*Generator, error) {
	if g == nil || g.Config == nil {
		return nil, NewConfigError("Graph", nil, "graph cannot be nil")
	}
	if g.Target == nil {
		return nil, NewConfigError("Target", nil, "no target translator: use WithTarget")
	}
	return &Generator{graph: g}, nil
}

// Graph returns the generator graph.
func (gen *Generator) Graph() *Graph { return gen.graph }

// Generate renders the artifacts of a single collection. A failing
// artifact fails the whole collection; no partial result is returned.
func (gen *Generator) Generate(name string) (*Result, error) {
	t, ok := gen.graph.Type(name)
	if !ok {
		err := NewGenerationError("lookup", name, "collection is not part of the validated graph", nil)
		if !gen.graph.IsDeclared(name) {
			err.Message = "unknown collection"
		}
		return nil, err
	}
	log := gen.graph.logger().With(zap.String("collection", name), zap.String("target", gen.graph.Target.Name()))
	start := time.Now()
	res := &Result{Collection: name}
	steps := []step{
		{KindConfig, gen.graph.Target.Config},
		{KindService, gen.graph.Target.Service},
	}
	if gen.graph.Types {
		steps = append(steps, step{KindTypes, gen.graph.Target.Types})
	}
	for _, e := range gen.graph.Emitters {
		steps = append(steps, step{ArtifactKind(e.Name()), e.Emit})
	}
	for _, s := range steps {
		a, err := gen.render(t, s)
		if err != nil {
			return nil, err
		}
		res.Artifacts = append(res.Artifacts, a)
	}
	if err := checkPaths(res); err != nil {
		return nil, NewGenerationError("paths", name, "", err)
	}
	log.Debug("collection generated", zap.Strings("artifacts", res.Paths()), zap.Duration("took", time.Since(start)))
	return res, nil
}

// step renders one artifact kind.
type step struct {
	kind ArtifactKind
	fn   func(*Type) (*Artifact, error)
}

func (gen *Generator) render(t *Type, s step) (*Artifact, error) {
	phase := string(s.kind)
	a, err := s.fn(t)
	switch {
	case err != nil:
		return nil, NewGenerationError(phase, t.Name, "", err)
	case a == nil || len(a.Content) == 0:
		return nil, NewGenerationError(phase, t.Name, "empty artifact", nil)
	case a.Path == "":
		return nil, NewGenerationError(phase, t.Name, "artifact without a path", nil)
	}
	if a.Kind == "" {
		a.Kind = s.kind
	}
	return a, nil
}

// checkPaths rejects artifact paths that escape the output directory or
// collide within the result.
func checkPaths(r *Result) error {
	var seen []string
	for _, a := range r.Artifacts {
		clean := path.Clean(a.Path)
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("artifact path %q escapes the output directory", a.Path)
		}
		if slices.Contains(seen, clean) {
			return fmt.Errorf("artifact path %q generated twice", a.Path)
		}
		seen = append(seen, clean)
	}
	return nil
}

// GenerateAll renders every collection of the graph in parallel. Results
// keep the graph order. A failing collection does not stop the others:
// the successful results are returned together with the joined errors.
func (gen *Generator) GenerateAll(ctx context.Context) ([]*Result, error) {
	nodes := gen.graph.Nodes
	results := make([]*Result, len(nodes))
	errs := make([]error, len(nodes))
	var eg errgroup.Group
	eg.SetLimit(gen.graph.workers())
	for i, t := range nodes {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = gen.Generate(t.Name)
			return nil
		})
	}
	_ = eg.Wait()
	var out []*Result
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, errors.Join(errs...)
}

// Generate validates a single collection and renders its artifacts. It is
// the programmatic entry point: nothing is written to disk.
//
//	res, err := gen.Generate(appointment,
//		gen.WithTarget(payload.New()),
//		gen.WithExternal("Customer"),
//	)
func Generate(c *schema.Collection, opts ...Option) (*Result, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	g, err := NewGraph(cfg, c)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(g)
	if err != nil {
		return nil, err
	}
	return gen.Generate(c.Name)
}
