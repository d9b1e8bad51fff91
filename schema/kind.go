package schema

import "strings"

// Kind is the kind of a field value.
type Kind string

// Field kinds.
const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindDate     Kind = "date"
	KindRelation Kind = "relation"
	KindSelect   Kind = "select"
	KindRichText Kind = "richtext"
)

// kindAliases maps Payload field type names to kinds.
var kindAliases = map[string]Kind{
	"checkbox":     KindBoolean,
	"relationship": KindRelation,
	"richText":     KindRichText,
}

// Kinds returns all known kinds in declaration order.
func Kinds() []Kind {
	return []Kind{KindText, KindNumber, KindBoolean, KindDate, KindRelation, KindSelect, KindRichText}
}

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindBoolean, KindDate, KindRelation, KindSelect, KindRichText:
		return true
	}
	return false
}

// ParseKind resolves a kind name or a Payload alias. Unknown names are
// returned as-is so that validation can report them with suggestions.
func ParseKind(s string) Kind {
	if k, ok := kindAliases[s]; ok {
		return k
	}
	k := Kind(strings.ToLower(s))
	if k.Valid() {
		return k
	}
	return Kind(s)
}

// UnmarshalText implements encoding.TextUnmarshaler so that decoded
// documents accept aliases.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}

// Comparable reports whether values of the kind can be ordered.
func (k Kind) Comparable() bool {
	switch k {
	case KindText, KindNumber, KindDate, KindSelect, KindRelation:
		return true
	}
	return false
}
