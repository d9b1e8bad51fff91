package schema_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernmen/collectiongen"
	"github.com/modernmen/collectiongen/schema"
	"github.com/modernmen/collectiongen/schema/field"
)

func appointment() *schema.Collection {
	return &schema.Collection{
		Name: "Appointment",
		Fields: []*schema.Field{
			field.Date("date").Required().Descriptor(),
			field.Relation("customer", "Customer").Descriptor(),
			field.Select("status", "pending", "booked", "cancelled").Default("pending").Descriptor(),
			field.Text("notes").MaxLen(10).Descriptor(),
			field.Number("price").Min(0).Descriptor(),
			field.Relation("services", "Service").HasMany().Descriptor(),
			field.Text("reference").ReadOnly().Descriptor(),
		},
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want schema.Kind
	}{
		{"text", schema.KindText},
		{"Number", schema.KindNumber},
		{"checkbox", schema.KindBoolean},
		{"relationship", schema.KindRelation},
		{"richText", schema.KindRichText},
		{"richtext", schema.KindRichText},
		{"color", schema.Kind("color")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, schema.ParseKind(tt.in))
		})
	}
	assert.False(t, schema.Kind("color").Valid())
	assert.Len(t, schema.Kinds(), 7)
}

func TestAccessRule(t *testing.T) {
	admin := &schema.Principal{Subject: "u1", Roles: []string{schema.AdminRole}}
	staff := &schema.Principal{Subject: "u2", Roles: []string{"staff"}}
	customer := &schema.Principal{Subject: "u3"}

	t.Run("Validate", func(t *testing.T) {
		assert.NoError(t, schema.Public.Validate())
		assert.NoError(t, schema.Roles("staff", "editor").Validate())
		assert.Error(t, schema.AccessRule("everyone").Validate())
		assert.Error(t, schema.AccessRule("roles:").Validate())
		assert.Error(t, schema.AccessRule("roles:a,,b").Validate())
	})

	t.Run("Allows", func(t *testing.T) {
		assert.True(t, schema.Public.Allows(nil))
		assert.False(t, schema.Authenticated.Allows(nil))
		assert.True(t, schema.Authenticated.Allows(customer))
		assert.False(t, schema.AdminOnly.Allows(staff))
		assert.True(t, schema.AdminOnly.Allows(admin))
		assert.True(t, schema.Roles("staff").Allows(staff))
		assert.False(t, schema.Roles("staff").Allows(customer))
		assert.True(t, schema.Roles("staff").Allows(admin))
	})

	t.Run("Defaults", func(t *testing.T) {
		var a schema.Access
		assert.Equal(t, schema.Authenticated, a.Rule(schema.OpCreate))
		assert.Equal(t, schema.Authenticated, a.Rule(schema.OpRead))
		assert.Equal(t, schema.Authenticated, a.Rule(schema.OpUpdate))
		assert.Equal(t, schema.AdminOnly, a.Rule(schema.OpDelete))
		a.Read = schema.Public
		assert.Equal(t, schema.Public, a.Rule(schema.OpRead))
	})

	t.Run("Context", func(t *testing.T) {
		ctx := schema.NewContext(context.Background(), staff)
		assert.Same(t, staff, schema.FromContext(ctx))
		assert.Nil(t, schema.FromContext(context.Background()))
	})
}

func TestCollectionNames(t *testing.T) {
	c := appointment()
	assert.Equal(t, "appointments", c.SlugName())
	assert.Equal(t, "appointments", c.Table())
	assert.Equal(t, "Appointment", c.SingularLabel())
	assert.Equal(t, "Appointments", c.PluralLabel())

	note := &schema.Collection{Name: "CustomerNote"}
	assert.Equal(t, "customer-notes", note.SlugName())
	assert.Equal(t, "customer_notes", note.Table())
	assert.Equal(t, "Customer Note", note.SingularLabel())

	note.Slug = "notes"
	note.Labels = &schema.Labels{Singular: "Note", Plural: "Notes"}
	assert.Equal(t, "notes", note.SlugName())
	assert.Equal(t, "Notes", note.PluralLabel())
}

func TestCollectionClone(t *testing.T) {
	c := appointment()
	c.Hooks = schema.Hooks{schema.BeforeChange: {"stampReference"}}
	n := c.Clone()
	require.Equal(t, c, n)

	n.Fields[2].Options[0] = "draft"
	n.Hooks[schema.BeforeChange][0] = "other"
	n.Fields = n.Fields[:1]
	assert.Equal(t, "pending", c.Fields[2].Options[0])
	assert.Equal(t, "stampReference", c.Hooks[schema.BeforeChange][0])
	assert.Len(t, c.Fields, 7)
}

func TestCheckRecord(t *testing.T) {
	c := appointment()

	t.Run("Valid", func(t *testing.T) {
		rec := c.ApplyDefaults(map[string]any{
			"date":     "2026-03-01T10:00:00Z",
			"customer": "c1",
			"services": []any{"s1", "s2"},
			"price":    40,
		})
		assert.Equal(t, "pending", rec["status"])
		assert.NoError(t, c.CheckRecord(rec, false))
	})

	t.Run("MissingRequired", func(t *testing.T) {
		err := c.CheckRecord(map[string]any{"customer": "c1"}, false)
		require.Error(t, err)
		assert.True(t, collectiongen.IsConstraintError(err))
		assert.Contains(t, err.Error(), `"date"`)
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		assert.NoError(t, c.CheckRecord(map[string]any{"status": "booked"}, true))
		assert.Error(t, c.CheckRecord(map[string]any{"date": nil}, true), "required field cannot be cleared")
	})

	t.Run("Violations", func(t *testing.T) {
		err := c.CheckRecord(map[string]any{
			"date":      "tomorrow",
			"status":    "lost",
			"notes":     "far too long for ten",
			"price":     -1,
			"services":  "s1",
			"reference": "R-1",
			"color":     "red",
			"id":        "x",
		}, false)
		require.Error(t, err)
		for _, name := range []string{"date", "status", "notes", "price", "services", "reference", "color", "id"} {
			assert.Contains(t, err.Error(), `"`+name+`"`)
		}
	})
}

func TestFieldCheck(t *testing.T) {
	tests := []struct {
		name  string
		field *schema.Field
		value any
		ok    bool
	}{
		{"text", field.Text("t").Descriptor(), "x", true},
		{"text/type", field.Text("t").Descriptor(), 1, false},
		{"text/pattern", field.Text("t").Match(`^\d+$`).Descriptor(), "12a", false},
		{"number/int", field.Number("n").Max(10).Descriptor(), 10, true},
		{"number/over", field.Number("n").Max(10).Descriptor(), 10.5, false},
		{"boolean", field.Boolean("b").Descriptor(), true, true},
		{"boolean/type", field.Boolean("b").Descriptor(), "true", false},
		{"date/day", field.Date("d").Descriptor(), "2026-01-02", true},
		{"date/time", field.Date("d").Descriptor(), time.Now(), true},
		{"relation/empty", field.Relation("r", "R").Descriptor(), "", false},
		{"select/many", field.Select("s", "a", "b").HasMany().Descriptor(), []string{"a", "b"}, true},
		{"select/many/bad", field.Select("s", "a", "b").HasMany().Descriptor(), []any{"a", "c"}, false},
		{"richtext", field.RichText("r").Descriptor(), map[string]any{"root": nil}, true},
		{"nil", field.Text("t").Descriptor(), nil, true},
		{"unknown", &schema.Field{Name: "x", Kind: "color"}, "red", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Check(tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestHooks(t *testing.T) {
	h := schema.Hooks{
		schema.AfterChange:  {"notify", "audit"},
		schema.BeforeChange: {"audit"},
	}
	assert.Equal(t, []string{"audit", "notify"}, h.Names())
	assert.True(t, schema.BeforeRead.Valid())
	assert.False(t, schema.HookEvent("onSave").Valid())
}
