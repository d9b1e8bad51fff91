package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/modernmen/collectiongen/compiler/gen"
	"github.com/modernmen/collectiongen/compiler/load"
	"github.com/modernmen/collectiongen/schema"
)

// DefaultDefinitions is the file init writes when none is named.
const DefaultDefinitions = "collections.yaml"

func (a *app) newInitCommand() *cobra.Command {
	var (
		name   string
		fields []string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Scaffold a definitions file",
		Long: `Init writes a definitions file with one collection. Without --name the
collection is built from interactive prompts.

Fields given with --field use the form name:kind, with a trailing "!" for
required fields. Relations and selects take their target or options
after "=":

  collectiongen init --name Appointment \
    --field date:date! --field customer:relation=Customer \
    --field status:select=booked,completed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := DefaultDefinitions
			if len(args) == 1 {
				file = args[0]
			}
			format, err := load.FormatOf(file)
			if err != nil {
				return err
			}
			if _, err := os.Stat(file); err == nil && !force {
				return fmt.Errorf("init: %s already exists (use --force to overwrite)", file)
			}
			var c *schema.Collection
			if name != "" {
				c, err = scaffold(name, fields)
			} else {
				c, err = prompt()
			}
			if err != nil {
				return err
			}
			doc := &load.Document{Collections: []*schema.Collection{c}, External: externals(c)}
			gc, err := gen.NewConfig(gen.WithExternal(doc.External...))
			if err != nil {
				return err
			}
			if _, err := gen.NewGraph(gc, c); err != nil {
				return err
			}
			b, err := load.Marshal(doc, format)
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, b, 0o644); err != nil {
				return fmt.Errorf("init: %w", err)
			}
			a.ui.Success("created %s with collection %s", file, c.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "collection name; skips the prompts")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "field as name:kind[=target|options][!]")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// scaffold builds a collection from command line field specs.
func scaffold(name string, specs []string) (*schema.Collection, error) {
	c := &schema.Collection{Name: name}
	var errs []error
	for _, spec := range specs {
		f, err := parseField(spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.Fields = append(c.Fields, f)
	}
	return c, errors.Join(errs...)
}

// parseField parses name:kind[=arg][!].
func parseField(spec string) (*schema.Field, error) {
	name, rest, ok := strings.Cut(spec, ":")
	if !ok || name == "" || rest == "" {
		return nil, fmt.Errorf("init: field %q: want name:kind", spec)
	}
	f := &schema.Field{Name: name}
	rest, f.Required = strings.CutSuffix(rest, "!")
	kind, arg, _ := strings.Cut(rest, "=")
	f.Kind = schema.ParseKind(kind)
	switch f.Kind {
	case schema.KindRelation:
		f.RelationTo = arg
	case schema.KindSelect:
		for _, o := range strings.Split(arg, ",") {
			if o = strings.TrimSpace(o); o != "" {
				f.Options = append(f.Options, o)
			}
		}
	default:
		if arg != "" {
			return nil, fmt.Errorf("init: field %q: kind %s takes no argument", spec, kind)
		}
	}
	return f, nil
}

// prompt asks for the collection name and its fields.
func prompt() (*schema.Collection, error) {
	c := &schema.Collection{}
	err := survey.AskOne(&survey.Input{Message: "Collection name:"}, &c.Name,
		survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return gen.ValidCollectionName(s)
		}))
	if err != nil {
		return nil, err
	}
	kinds := make([]string, 0, len(schema.Kinds()))
	for _, k := range schema.Kinds() {
		kinds = append(kinds, k.String())
	}
	for {
		var name string
		if err := survey.AskOne(&survey.Input{Message: "Field name (empty to finish):"}, &name); err != nil {
			return nil, err
		}
		if name = strings.TrimSpace(name); name == "" {
			return c, nil
		}
		f := &schema.Field{Name: name}
		var kind string
		if err := survey.AskOne(&survey.Select{Message: "Kind:", Options: kinds, Default: schema.KindText.String()}, &kind); err != nil {
			return nil, err
		}
		f.Kind = schema.Kind(kind)
		switch f.Kind {
		case schema.KindRelation:
			if err := survey.AskOne(&survey.Input{Message: "Related collection:"}, &f.RelationTo, survey.WithValidator(survey.Required)); err != nil {
				return nil, err
			}
		case schema.KindSelect:
			var options string
			if err := survey.AskOne(&survey.Input{Message: "Options (comma separated):"}, &options, survey.WithValidator(survey.Required)); err != nil {
				return nil, err
			}
			for _, o := range strings.Split(options, ",") {
				if o = strings.TrimSpace(o); o != "" {
					f.Options = append(f.Options, o)
				}
			}
		}
		if err := survey.AskOne(&survey.Confirm{Message: "Required?"}, &f.Required); err != nil {
			return nil, err
		}
		c.Fields = append(c.Fields, f)
	}
}

// externals returns the relation targets declared outside c.
func externals(c *schema.Collection) []string {
	var names []string
	for _, f := range c.Fields {
		if f.RelationTo != "" && f.RelationTo != c.Name && !slices.Contains(names, f.RelationTo) {
			names = append(names, f.RelationTo)
		}
	}
	return names
}
