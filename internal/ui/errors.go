package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/modernmen/collectiongen/compiler/gen"
)

// Error prints one block per error. Joined errors are split and
// validation errors show their suggestions.
func (u *UI) Error(err error) {
	for _, e := range Flatten(err) {
		fmt.Fprint(u.Err, u.FormatError(e))
	}
}

// FormatError renders a single error block:
//
//	✗ VALIDATION: collection Appointment field status
//	   unknown kind "selct"
//
//	   Did you mean: select?
func (u *UI) FormatError(err error) string {
	var b strings.Builder
	head := u.color(color.FgRed, color.Bold)
	body := u.color(color.FgRed)

	var ve *gen.ValidationError
	switch {
	case errors.As(err, &ve):
		subject := "collection " + ve.Collection
		if ve.Field != "" {
			subject += " field " + ve.Field
		}
		head.Fprintf(&b, "✗ VALIDATION: %s\n", strings.TrimSpace(subject))
		body.Fprintf(&b, "   %s\n", ve.Message)
		if len(ve.Suggestions) > 0 {
			b.WriteString("\n")
			u.color(color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(ve.Suggestions, ", "))
		}
	case gen.IsIOError(err):
		head.Fprintf(&b, "✗ WRITE FAILED\n")
		body.Fprintf(&b, "   %s\n", err)
	default:
		head.Fprintf(&b, "✗ %s\n", err)
	}
	return b.String()
}

// Flatten splits errors built with errors.Join, depth first.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, Flatten(e)...)
	}
	return out
}
