package ui

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"

	"github.com/modernmen/collectiongen/compiler/gen"
)

// DefaultStyle is the chroma style of dry-run listings.
const DefaultStyle = "monokai"

// Printer returns the dry-run printer. Without colors it is
// gen.PlainPrinter; otherwise each artifact is highlighted by the lexer
// matching its file name.
func (u *UI) Printer(style string) gen.Printer {
	if u.NoColor {
		return gen.PlainPrinter
	}
	s := styles.Get(style)
	f := formatters.TTY256
	banner := u.color(color.FgHiBlack, color.Bold)
	return func(w io.Writer, a *gen.Artifact) error {
		if _, err := banner.Fprintf(w, "==> %s <==\n", a.Path); err != nil {
			return err
		}
		l := lexers.Match(a.Path)
		if l == nil {
			l = lexers.Analyse(string(a.Content))
		}
		if l == nil {
			l = lexers.Fallback
		}
		it, err := chroma.Coalesce(l).Tokenise(nil, string(a.Content))
		if err != nil {
			return fmt.Errorf("highlight %s: %w", a.Path, err)
		}
		if err := f.Format(w, s, it); err != nil {
			return err
		}
		_, err = io.WriteString(w, "\x1b[0m\n")
		return err
	}
}
