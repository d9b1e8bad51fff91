package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modernmen/collectiongen/compiler/load"
)

func (a *app) newValidateCommand() *cobra.Command {
	var (
		normalize bool
		format    string
	)
	cmd := &cobra.Command{
		Use:   "validate <definitions>",
		Short: "Check definitions without generating",
		Long: `Validate loads the definitions file and reports every invalid collection.
With --normalize the canonical document is printed: aliases resolved,
keys in a fixed order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			doc, err := load.LoadFile(args[0])
			if err != nil {
				return err
			}
			g, err := a.graph(cfg, doc)
			if err != nil {
				return err
			}
			if !normalize {
				a.ui.Success("%d collections valid", len(g.Nodes))
				return nil
			}
			f := load.Format(format)
			if f == "" {
				if f, err = load.FormatOf(args[0]); err != nil {
					return err
				}
			}
			canonical := &load.Document{External: doc.External}
			for _, t := range g.Nodes {
				canonical.Collections = append(canonical.Collections, t.Definition())
			}
			b, err := load.Marshal(canonical, f)
			if err != nil {
				return err
			}
			_, err = a.out.Write(b)
			return err
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "print the canonical document")
	cmd.Flags().StringVar(&format, "format", "", "format of the normalized document: yaml or json (default from the file extension)")
	cmd.Flags().StringSlice("external", nil, "collections declared elsewhere that relations may reference")
	return cmd
}

func (a *app) newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <definitions>",
		Short: "List the collections of a definitions file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			doc, err := load.LoadFile(args[0])
			if err != nil {
				return err
			}
			g, verr := a.graph(cfg, doc)
			if g == nil {
				return verr
			}
			rows := make([][]string, 0, len(doc.Collections))
			for _, c := range doc.Collections {
				t, ok := g.Type(c.Name)
				if !ok {
					rows = append(rows, []string{c.Name, c.SlugName(), strconv.Itoa(len(c.Fields)), "", "invalid"})
					continue
				}
				var refs []string
				for _, f := range t.Relations() {
					refs = append(refs, f.RefName)
				}
				rows = append(rows, []string{t.Name, t.Slug, strconv.Itoa(len(t.Fields)), strings.Join(refs, ","), "ok"})
			}
			a.ui.Table([]string{"NAME", "SLUG", "FIELDS", "RELATIONS", "STATUS"}, rows)
			if verr != nil {
				a.ui.Warn("%d of %d collections invalid", len(doc.Collections)-len(g.Nodes), len(doc.Collections))
				return verr
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("external", nil, "collections declared elsewhere that relations may reference")
	return cmd
}
