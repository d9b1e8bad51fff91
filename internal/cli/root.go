// Package cli implements the collectiongen command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/modernmen/collectiongen/internal/config"
	"github.com/modernmen/collectiongen/internal/logging"
	"github.com/modernmen/collectiongen/internal/ui"
)

// Version is set at build time.
var Version = "dev"

// app holds the state shared by the commands of one invocation.
type app struct {
	v          *viper.Viper
	out        io.Writer
	errOut     io.Writer
	ui         *ui.UI
	log        *zap.Logger
	configFile string
	verbose    bool
	noColor    bool
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{
		v:      config.New(),
		out:    stdout,
		errOut: stderr,
		ui:     ui.New(stdout, stderr, color.NoColor),
		log:    zap.NewNop(),
	}
	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		a.ui.Error(err)
		return 1
	}
	return 0
}

func (a *app) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "collectiongen",
		Short: "Generate CMS collection modules from declarative definitions",
		Long: `collectiongen validates collection definitions and renders, per collection,
a CMS configuration module, a typed CRUD service and type declarations.
Optional emitters add GraphQL SDL and SQL migrations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			a.ui.NoColor = a.noColor || color.NoColor
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./collectiongen.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log every generation step")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.newGenerateCommand(),
		a.newValidateCommand(),
		a.newListCommand(),
		a.newInitCommand(),
		a.newWatchCommand(),
		a.newVersionCommand(),
	)
	return root
}

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.out, "collectiongen %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

// configFlags maps command line flags to config keys.
var configFlags = map[string]string{
	"out":          "out",
	"target":       "target",
	"types":        "types",
	"package":      "package",
	"header":       "header",
	"hooks-module": "hooks_module",
	"graphql":      "graphql",
	"migrations":   "migrations",
	"external":     "external",
	"workers":      "workers",
}

// addConfigFlags registers the generation flags. Defaults live in the
// viper instance; a flag only overrides them when set.
func addConfigFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringP("out", "o", "", "output directory (default \"generated\")")
	fs.StringP("target", "t", "", "translator: payload or go (default \"payload\")")
	fs.Bool("types", true, "render type declarations")
	fs.String("package", "", "import path of the generated Go code root")
	fs.String("header", "", "header comment of generated files")
	fs.String("hooks-module", "", "module Payload configs import hooks from")
	fs.Bool("graphql", false, "render GraphQL SDL")
	fs.String("migrations", "", "render SQL migrations for a dialect: postgres, mysql or sqlite")
	fs.StringSlice("external", nil, "collections declared elsewhere that relations may reference")
	fs.Int("workers", 0, "collections generated in parallel (default GOMAXPROCS)")
}

// load binds the flags of cmd, reads the configuration and sets up logging.
func (a *app) load(cmd *cobra.Command) (*config.Config, error) {
	for name, key := range configFlags {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := a.v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(a.errOut, logging.Options{Level: cfg.Log.Level, Verbose: a.verbose, JSON: cfg.Log.JSON})
	if err != nil {
		return nil, err
	}
	a.log = log
	return cfg, nil
}
