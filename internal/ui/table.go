package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table prints rows under bold headers with padded columns.
func (u *UI) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}
	bold := u.color(color.Bold, color.FgCyan)
	for i, h := range headers {
		bold.Fprint(u.Out, pad(h, widths[i], i == len(headers)-1))
	}
	fmt.Fprintln(u.Out)
	for i, w := range widths {
		fmt.Fprint(u.Out, pad(strings.Repeat("-", w), w, i == len(widths)-1))
	}
	fmt.Fprintln(u.Out)
	for _, row := range rows {
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprint(u.Out, pad(cell, widths[i], i == len(widths)-1))
		}
		fmt.Fprintln(u.Out)
	}
}

// pad right-pads s to w runes plus a two space gutter. The last column is
// not padded.
func pad(s string, w int, last bool) string {
	if last {
		return s
	}
	return s + strings.Repeat(" ", w-utf8.RuneCountInString(s)+2)
}
