// Package ui formats command line output: status lines, error blocks,
// tables and highlighted dry-run listings.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// UI writes messages to Out and errors to Err.
type UI struct {
	Out     io.Writer
	Err     io.Writer
	NoColor bool
}

// New returns a UI. Colors are disabled when noColor is set.
func New(out, err io.Writer, noColor bool) *UI {
	return &UI{Out: out, Err: err, NoColor: noColor}
}

func (u *UI) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if u.NoColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}

// Success prints a green check line.
func (u *UI) Success(format string, args ...any) {
	u.color(color.FgGreen, color.Bold).Fprintf(u.Out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Info prints a cyan line.
func (u *UI) Info(format string, args ...any) {
	u.color(color.FgCyan).Fprintf(u.Out, "%s\n", fmt.Sprintf(format, args...))
}

// Warn prints a yellow line on Err.
func (u *UI) Warn(format string, args ...any) {
	u.color(color.FgYellow).Fprintf(u.Err, "! %s\n", fmt.Sprintf(format, args...))
}
