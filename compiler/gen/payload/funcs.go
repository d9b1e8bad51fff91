package payload

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/modernmen/collectiongen/compiler/gen"
	"github.com/modernmen/collectiongen/schema"
)

var funcs = template.FuncMap{
	"str":          str,
	"lit":          lit,
	"union":        union,
	"join":         strings.Join,
	"camel":        gen.Camel,
	"tsType":       tsType,
	"fieldProps":   fieldProps,
	"accessProps":  accessProps,
	"adminProps":   adminProps,
	"hookProps":    hookProps,
	"needsRoles":   needsRoles,
	"textFields":   textFields,
	"dateField":    dateField,
	"createFields": createFields,
}

// str quotes s as a single-quoted TypeScript string literal.
func str(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// lit renders a decoded JSON or YAML value as a TypeScript literal.
// Object keys are sorted.
func lit(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return str(v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return str(v.UTC().Format(time.RFC3339Nano))
	case []string:
		items := make([]string, len(v))
		for i := range v {
			items[i] = str(v[i])
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []any:
		items := make([]string, len(v))
		for i := range v {
			items[i] = lit(v[i])
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		if len(v) == 0 {
			return "{}"
		}
		props := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			props = append(props, key(k)+": "+lit(v[k]))
		}
		return "{ " + strings.Join(props, ", ") + " }"
	}
	if n, ok := schema.Number(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return str(fmt.Sprint(v))
}

// key renders an object key, quoting it when it is not an identifier.
func key(k string) string {
	for i, r := range k {
		if !(r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9') {
			return str(k)
		}
	}
	if k == "" {
		return "''"
	}
	return k
}

// union renders a string literal union type.
func union(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = str(v)
	}
	return strings.Join(quoted, " | ")
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// payloadType returns the Payload field type of f.
func payloadType(f *gen.Field) string {
	switch f.Kind {
	case schema.KindBoolean:
		return "checkbox"
	case schema.KindRelation:
		return "relationship"
	case schema.KindRichText:
		return "richText"
	default:
		return string(f.Kind)
	}
}

// tsType returns the TypeScript type of a field value.
func tsType(f *gen.Field) string {
	var t string
	switch f.Kind {
	case schema.KindText, schema.KindDate, schema.KindRelation:
		t = "string"
	case schema.KindNumber:
		t = "number"
	case schema.KindBoolean:
		t = "boolean"
	case schema.KindSelect:
		t = f.EnumName()
	default:
		t = "unknown"
	}
	if f.HasMany() {
		t += "[]"
	}
	return t
}

// fieldProps returns the properties of a Payload field object.
func fieldProps(f *gen.Field) []string {
	props := []string{
		"name: " + str(f.Name),
		"type: " + str(payloadType(f)),
	}
	if f.Definition().Label != "" {
		props = append(props, "label: "+str(f.Label()))
	}
	switch {
	case f.IsRelation():
		props = append(props, "relationTo: "+str(f.RefSlug))
	case f.IsSelect():
		props = append(props, "options: "+lit(f.Options()))
	}
	if f.HasMany() {
		props = append(props, "hasMany: true")
	}
	if f.Required() {
		props = append(props, "required: true")
	}
	if f.Unique() {
		props = append(props, "unique: true")
	} else if f.Index() {
		props = append(props, "index: true")
	}
	if f.HasDefault() {
		props = append(props, "defaultValue: "+lit(f.Default()))
	}
	if c := f.Constraint(); c != nil {
		minKey, maxKey := "min", "max"
		if f.IsText() {
			minKey, maxKey = "minLength", "maxLength"
		}
		if c.Min != nil {
			props = append(props, minKey+": "+num(*c.Min))
		}
		if c.Max != nil {
			props = append(props, maxKey+": "+num(*c.Max))
		}
		if c.Pattern != "" {
			props = append(props, fmt.Sprintf(
				"validate: (value: unknown) => value == null || value === '' || new RegExp(%s).test(String(value)) || %s",
				str(c.Pattern), str(fmt.Sprintf("%s must match %s", f.Label(), c.Pattern)),
			))
		}
	}
	var admin []string
	if f.ReadOnly() {
		admin = append(admin, "readOnly: true")
	}
	if d := f.Description(); d != "" {
		admin = append(admin, "description: "+str(d))
	}
	if len(admin) > 0 {
		props = append(props, "admin: { "+strings.Join(admin, ", ")+" }")
	}
	return props
}

// accessFn renders an access rule as a Payload access function.
func accessFn(r schema.AccessRule) string {
	switch r {
	case schema.Public:
		return "() => true"
	case schema.Authenticated:
		return "({ req: { user } }) => Boolean(user)"
	case schema.AdminOnly:
		return "({ req: { user } }) => hasRole(user as AccessUser, [])"
	}
	return fmt.Sprintf("({ req: { user } }) => hasRole(user as AccessUser, %s)", lit(r.Roles()))
}

// accessProps returns the effective access function of every operation.
func accessProps(t *gen.Type) []string {
	props := make([]string, 0, len(schema.Ops()))
	for _, op := range schema.Ops() {
		props = append(props, string(op)+": "+accessFn(t.Rule(op)))
	}
	return props
}

// needsRoles reports whether any access function inspects roles.
func needsRoles(t *gen.Type) bool {
	for _, op := range schema.Ops() {
		if r := t.Rule(op); r != schema.Public && r != schema.Authenticated {
			return true
		}
	}
	return false
}

// adminProps returns the admin panel properties of a collection.
func adminProps(t *gen.Type) []string {
	var props []string
	if a := t.Admin(); a != nil {
		if a.UseAsTitle != "" {
			props = append(props, "useAsTitle: "+str(a.UseAsTitle))
		}
		if len(a.DefaultColumns) > 0 {
			props = append(props, "defaultColumns: "+lit(a.DefaultColumns))
		}
		if a.Group != "" {
			props = append(props, "group: "+str(a.Group))
		}
	}
	if d := t.Description(); d != "" {
		props = append(props, "description: "+str(d))
	}
	return props
}

// hookProps returns one hook list per event, in firing order.
func hookProps(t *gen.Type) []string {
	hooks := t.Hooks()
	var props []string
	for _, e := range schema.HookEvents() {
		if names := hooks[e]; len(names) > 0 {
			props = append(props, fmt.Sprintf("%s: [%s]", e, strings.Join(names, ", ")))
		}
	}
	return props
}

// textFields returns the names of the plain text fields.
func textFields(t *gen.Type) []string {
	var names []string
	for _, f := range t.Fields {
		if f.IsText() {
			names = append(names, f.Name)
		}
	}
	return names
}

// dateField returns the first date field, or nil.
func dateField(t *gen.Type) *gen.Field {
	f, _ := t.FieldBy(func(f *gen.Field) bool { return f.IsDate() })
	return f
}

// inputField is a property of a create input.
type inputField struct {
	*gen.Field
	Omittable bool
}

// createFields returns the settable fields of a create input. Fields
// with a default may be omitted.
func createFields(t *gen.Type) []inputField {
	var fs []inputField
	for _, f := range t.MutableFields() {
		fs = append(fs, inputField{Field: f, Omittable: !f.Required() || f.HasDefault()})
	}
	return fs
}
