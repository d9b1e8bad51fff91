package cli

import (
	"context"
	"errors"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modernmen/collectiongen/compiler/gen"
	"github.com/modernmen/collectiongen/compiler/gen/golang"
	"github.com/modernmen/collectiongen/compiler/gen/graphql"
	"github.com/modernmen/collectiongen/compiler/gen/migrate"
	"github.com/modernmen/collectiongen/compiler/gen/payload"
	"github.com/modernmen/collectiongen/compiler/load"
	"github.com/modernmen/collectiongen/internal/config"
	"github.com/modernmen/collectiongen/internal/ui"
)

func (a *app) newGenerateCommand() *cobra.Command {
	var (
		dryRun bool
		names  []string
	)
	cmd := &cobra.Command{
		Use:   "generate <definitions>",
		Short: "Validate definitions and write the generated modules",
		Example: `  collectiongen generate collections.yaml
  collectiongen generate collections.yaml --target go --package example.com/salon/collections
  collectiongen generate collections.yaml --dry-run --collections Appointment`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			return a.generate(cmd.Context(), cfg, args[0], names, dryRun)
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the artifacts instead of writing them")
	cmd.Flags().StringSliceVar(&names, "collections", nil, "generate only the named collections")
	return cmd
}

// generate runs one generation pass. Valid collections are written even
// when others fail; all failures are returned joined.
func (a *app) generate(ctx context.Context, cfg *config.Config, file string, names []string, dryRun bool) error {
	doc, err := load.LoadFile(file)
	if err != nil {
		return err
	}
	g, err := a.graph(cfg, doc)
	if g == nil {
		return err
	}
	var errs []error
	if len(names) > 0 {
		errs = append(errs, selected(err, names))
	} else {
		errs = append(errs, err)
	}
	generator, err := gen.NewGenerator(g)
	if err != nil {
		return err
	}
	var results []*gen.Result
	if len(names) == 0 {
		results, err = generator.GenerateAll(ctx)
		errs = append(errs, err)
	} else {
		for _, name := range names {
			if !g.IsDeclared(name) {
				errs = append(errs, &gen.ValidationError{
					Collection:  name,
					Message:     "unknown collection",
					Suggestions: gen.Suggest(name, doc.Names()),
				})
				continue
			}
			if _, ok := g.Type(name); !ok {
				continue
			}
			r, err := generator.Generate(name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			results = append(results, r)
		}
	}
	w := &gen.Writer{
		Dir:     cfg.Out,
		DryRun:  dryRun,
		Out:     a.out,
		Printer: a.ui.Printer(ui.DefaultStyle),
		Logger:  a.log,
	}
	errs = append(errs, w.Write(results...))
	if m := w.Metrics(); m.FilesWritten > 0 {
		a.ui.Success("wrote %d files (%d bytes) for %d collections to %s", m.FilesWritten, m.TotalBytes, len(results), cfg.Out)
	}
	return errors.Join(errs...)
}

// graph validates the document. The graph is returned together with the
// validation errors; it is nil only when generation cannot start.
func (a *app) graph(cfg *config.Config, doc *load.Document) (*gen.Graph, error) {
	opts, err := options(cfg, doc, a.log)
	if err != nil {
		return nil, err
	}
	gc, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return gen.NewGraph(gc, doc.Collections...)
}

// options translates the configuration into generator options.
func options(cfg *config.Config, doc *load.Document, log *zap.Logger) ([]gen.Option, error) {
	var target gen.Translator
	switch cfg.Target {
	case payload.Name:
		target = payload.New(payload.WithHooksModule(cfg.HooksModule))
	case golang.Name:
		target = golang.New()
	default:
		return nil, gen.NewConfigError("Target", cfg.Target, "unknown target")
	}
	opts := []gen.Option{
		gen.WithTarget(target),
		gen.WithTypes(cfg.Types),
		gen.WithLogger(log),
		gen.WithExternal(append(slices.Clone(doc.External), cfg.External...)...),
	}
	if cfg.Package != "" {
		opts = append(opts, gen.WithPackage(cfg.Package))
	}
	if cfg.Header != "" {
		opts = append(opts, gen.WithHeader(cfg.Header))
	}
	if cfg.Workers > 0 {
		opts = append(opts, gen.WithWorkers(cfg.Workers))
	}
	if cfg.GraphQL {
		opts = append(opts, gen.WithEmitters(graphql.New()))
	}
	if cfg.Migrations != "" {
		m, err := migrate.New(cfg.Migrations)
		if err != nil {
			return nil, err
		}
		opts = append(opts, gen.WithEmitters(m))
	}
	return opts, nil
}

// selected keeps the validation errors of the named collections and
// those not tied to a collection.
func selected(err error, names []string) error {
	var errs []error
	for _, ve := range gen.ValidationErrors(err) {
		if ve.Collection == "" || slices.Contains(names, ve.Collection) {
			errs = append(errs, ve)
		}
	}
	return errors.Join(errs...)
}
