package gen

import (
	"go/token"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// acronyms are rendered upper-case in exported Go names.
var acronyms = map[string]bool{
	"api": true, "html": true, "http": true, "id": true, "ip": true, "json": true,
	"sql": true, "ui": true, "uri": true, "url": true, "uuid": true, "xml": true,
}

// snake converts a camel or pascal case name to snake case.
//
//	snake("CustomerNote") // customer_note
//	snake("HTTPCode")     // http_code
func snake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if r == '-' || r == ' ' {
			r = '_'
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || unicode.IsUpper(prev) && nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// pascal converts a name to an exported Go identifier.
//
//	pascal("customer_id")     // CustomerID
//	pascal("durationMinutes") // DurationMinutes
func pascal(s string) string {
	var b strings.Builder
	for _, w := range strings.Split(snake(s), "_") {
		if w == "" {
			continue
		}
		if acronyms[w] {
			b.WriteString(strings.ToUpper(w))
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return b.String()
}

// camel converts a name to an unexported identifier.
func camel(s string) string {
	words := strings.Split(snake(s), "_")
	var b strings.Builder
	first := true
	for _, w := range words {
		switch {
		case w == "":
		case first:
			b.WriteString(w)
			first = false
		case acronyms[w]:
			b.WriteString(strings.ToUpper(w))
		default:
			b.WriteString(strings.ToUpper(w[:1]) + w[1:])
		}
	}
	return b.String()
}

// receiver returns the receiver name of a type: the initials of its words.
func receiver(s string) string {
	var b strings.Builder
	for _, w := range strings.Split(snake(s), "_") {
		if w != "" {
			b.WriteByte(w[0])
		}
	}
	r := b.String()
	if r == "" || token.Lookup(r).IsKeyword() {
		return "_" + r
	}
	return r
}

// plural returns the plural form of a name.
func plural(s string) string {
	return inflect.Pluralize(s)
}

// Snake, Pascal and Camel expose the naming rules to translators so that
// every target names things the same way.
func Snake(s string) string  { return snake(s) }
func Pascal(s string) string { return pascal(s) }
func Camel(s string) string  { return camel(s) }
