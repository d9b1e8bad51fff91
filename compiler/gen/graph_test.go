package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernmen/collectiongen/schema"
	"github.com/modernmen/collectiongen/schema/field"
)

func appointment() *schema.Collection {
	return &schema.Collection{
		Name: "Appointment",
		Fields: []*schema.Field{
			field.Date("date").Required().Descriptor(),
			field.Relation("customer", "Customer").Descriptor(),
		},
	}
}

func service() *schema.Collection {
	return &schema.Collection{
		Name: "Service",
		Fields: []*schema.Field{
			field.Text("title").Required().MaxLen(80).Descriptor(),
			field.Number("durationMinutes").Default(30).Descriptor(),
			field.Select("category", "hair", "nails", "spa").Descriptor(),
		},
	}
}

func newTestConfig(t *testing.T, opts ...Option) *Config {
	t.Helper()
	c, err := NewConfig(append([]Option{WithTarget(&stubTranslator{})}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewGraph(t *testing.T) {
	t.Run("valid collections in declaration order", func(t *testing.T) {
		g, err := NewGraph(newTestConfig(t, WithExternal("Customer")), appointment(), service())
		require.NoError(t, err)
		assert.Equal(t, []string{"Appointment", "Service"}, g.Names())

		a, ok := g.Type("Appointment")
		require.True(t, ok)
		assert.Equal(t, "appointments", a.Slug)
		assert.Equal(t, []string{"date", "customer"}, []string{a.Fields[0].Name, a.Fields[1].Name})
		customer, ok := a.Field("customer")
		require.True(t, ok)
		assert.Nil(t, customer.Ref)
		assert.Equal(t, "Customer", customer.RefName)
		assert.Equal(t, "customers", customer.RefSlug)
	})

	t.Run("relations resolve in any order", func(t *testing.T) {
		booking := &schema.Collection{
			Name:   "Booking",
			Fields: []*schema.Field{field.Relation("service", "Service").Required().Descriptor()},
		}
		g, err := NewGraph(newTestConfig(t), booking, service())
		require.NoError(t, err)
		b, _ := g.Type("Booking")
		f, _ := b.Field("service")
		require.NotNil(t, f.Ref)
		assert.Equal(t, "Service", f.Ref.Name)
		assert.Equal(t, []*Type{f.Ref}, b.RelatedTypes())
	})

	t.Run("definitions are copied", func(t *testing.T) {
		def := service()
		g, err := NewGraph(newTestConfig(t), def)
		require.NoError(t, err)
		def.Fields[0].Name = "renamed"
		s, _ := g.Type("Service")
		assert.Equal(t, "title", s.Fields[0].Name)
		assert.Equal(t, "title", s.Definition().Fields[0].Name)
	})

	t.Run("aliases are normalized", func(t *testing.T) {
		c := &schema.Collection{
			Name: "Note",
			Fields: []*schema.Field{
				{Name: "paid", Kind: "checkbox"},
				{Name: "body", Kind: "richText"},
			},
		}
		g, err := NewGraph(newTestConfig(t), c)
		require.NoError(t, err)
		n, _ := g.Type("Note")
		assert.True(t, n.Fields[0].IsBool())
		assert.True(t, n.Fields[1].IsRichText())
		assert.Equal(t, []string{"id", "createdAt", "updatedAt", "paid"}, n.QueryableFields())
	})

	t.Run("invalid collections are skipped", func(t *testing.T) {
		bad := &schema.Collection{
			Name: "Broken",
			Fields: []*schema.Field{
				field.Text("title").Descriptor(),
				field.Text("title").Descriptor(),
			},
		}
		g, err := NewGraph(newTestConfig(t), service(), bad)
		require.Error(t, err)
		require.NotNil(t, g)
		assert.Equal(t, []string{"Service"}, g.Names())
		_, ok := g.Type("Broken")
		assert.False(t, ok)
		assert.True(t, g.IsDeclared("Broken"))

		verrs := ValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, "Broken", verrs[0].Collection)
		assert.Equal(t, "title", verrs[0].Field)
		assert.True(t, errors.Is(err, ErrInvalidDefinition))
	})

	t.Run("duplicate collections", func(t *testing.T) {
		g, err := NewGraph(newTestConfig(t), service(), service())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared more than once")
		assert.Equal(t, []string{"Service"}, g.Names())
	})

	t.Run("slug collisions", func(t *testing.T) {
		other := service()
		other.Name = "Offering"
		other.Slug = "services"
		g, err := NewGraph(newTestConfig(t), service(), other)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "slug collides with collection Service")
		assert.Equal(t, []string{"Service"}, g.Names())
	})

	t.Run("nil config and nil collection", func(t *testing.T) {
		_, err := NewGraph(nil)
		assert.True(t, IsConfigError(err))

		g, err := NewGraph(newTestConfig(t), nil, service())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index 0 is nil")
		assert.Equal(t, []string{"Service"}, g.Names())
	})
}

func TestValidate(t *testing.T) {
	g, err := NewGraph(newTestConfig(t, WithExternal("Customer", "Users")), service())
	require.NoError(t, err)

	with := func(fields ...*schema.Field) *schema.Collection {
		return &schema.Collection{Name: "Appointment", Fields: fields}
	}
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name        string
		c           *schema.Collection
		field       string
		message     string
		suggestions []string
	}{
		{
			name:    "no fields",
			c:       with(),
			message: "collection has no fields",
		},
		{
			name:    "lower-case name",
			c:       &schema.Collection{Name: "appointment", Fields: []*schema.Field{field.Text("a").Descriptor()}},
			message: "must start with an upper-case letter",
		},
		{
			name:    "name with separator",
			c:       &schema.Collection{Name: "Salon/Appointment", Fields: []*schema.Field{field.Text("a").Descriptor()}},
			message: "path separator",
		},
		{
			name:    "invalid slug",
			c:       &schema.Collection{Name: "Appointment", Slug: "Appointments_", Fields: []*schema.Field{field.Text("a").Descriptor()}},
			message: "slug",
		},
		{
			name:    "duplicate field",
			c:       with(field.Date("date").Descriptor(), field.Text("date").Descriptor()),
			field:   "date",
			message: "duplicate field name",
		},
		{
			name:    "reserved field",
			c:       with(field.Text("createdAt").Descriptor()),
			field:   "createdAt",
			message: "reserved",
		},
		{
			name:    "invalid field name",
			c:       with(field.Text("first-name").Descriptor()),
			field:   "first-name",
			message: "field name must start",
		},
		{
			name:        "unknown kind",
			c:           with(&schema.Field{Name: "price", Kind: "nubmer"}),
			field:       "price",
			message:     `unknown kind "nubmer"`,
			suggestions: []string{"number"},
		},
		{
			name:    "relation without target",
			c:       with(&schema.Field{Name: "customer", Kind: schema.KindRelation}),
			field:   "customer",
			message: "requires relationTo",
		},
		{
			name:        "undeclared relation target",
			c:           with(field.Relation("customer", "Custmer").Descriptor()),
			field:       "customer",
			message:     `relation target "Custmer" is not a declared collection`,
			suggestions: []string{"Customer"},
		},
		{
			name:    "relationTo on text",
			c:       with(&schema.Field{Name: "customer", Kind: schema.KindText, RelationTo: "Customer"}),
			field:   "customer",
			message: "only valid on relation fields",
		},
		{
			name:    "hasMany on text",
			c:       with(&schema.Field{Name: "tags", Kind: schema.KindText, HasMany: true}),
			field:   "tags",
			message: "hasMany",
		},
		{
			name:    "select without options",
			c:       with(&schema.Field{Name: "status", Kind: schema.KindSelect}),
			field:   "status",
			message: "at least one option",
		},
		{
			name:    "colliding select options",
			c:       with(field.Select("status", "no-show", "no_show").Descriptor()),
			field:   "status",
			message: "collides",
		},
		{
			name:    "options on text",
			c:       with(&schema.Field{Name: "status", Kind: schema.KindText, Options: []string{"a"}}),
			field:   "status",
			message: "only valid on select fields",
		},
		{
			name:    "min greater than max",
			c:       with(field.Number("price").Range(10, 1).Descriptor()),
			field:   "price",
			message: "min 10 is greater than max 1",
		},
		{
			name:    "fractional text bound",
			c:       with(&schema.Field{Name: "code", Kind: schema.KindText, Constraint: &schema.Constraint{Max: f(2.5)}}),
			field:   "code",
			message: "non-negative integers",
		},
		{
			name:    "bounds on boolean",
			c:       with(&schema.Field{Name: "paid", Kind: schema.KindBoolean, Constraint: &schema.Constraint{Min: f(1)}}),
			field:   "paid",
			message: "text and number fields only",
		},
		{
			name:    "bad pattern",
			c:       with(field.Text("code").Match("[a-").Descriptor()),
			field:   "code",
			message: "pattern does not compile",
		},
		{
			name:    "invalid default",
			c:       with(field.Select("status", "booked").Default("cancelled").Descriptor()),
			field:   "status",
			message: "invalid default value",
		},
		{
			name:    "invalid access rule",
			c:       &schema.Collection{Name: "Appointment", Access: schema.Access{Delete: "nobody"}, Fields: []*schema.Field{field.Text("a").Descriptor()}},
			message: "access.delete",
		},
		{
			name:        "unknown hook event",
			c:           &schema.Collection{Name: "Appointment", Hooks: schema.Hooks{"beforeChnage": {"stamp"}}, Fields: []*schema.Field{field.Text("a").Descriptor()}},
			message:     "unknown hook event",
			suggestions: []string{"beforeChange"},
		},
		{
			name:    "hook name not an identifier",
			c:       &schema.Collection{Name: "Appointment", Hooks: schema.Hooks{schema.BeforeChange: {"send-mail"}}, Fields: []*schema.Field{field.Text("a").Descriptor()}},
			message: "not a valid identifier",
		},
		{
			name:        "admin title",
			c:           &schema.Collection{Name: "Appointment", Admin: &schema.Admin{UseAsTitle: "titel"}, Fields: []*schema.Field{field.Text("title").Descriptor()}},
			message:     "admin.useAsTitle",
			suggestions: []string{"title"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Validate(tt.c)
			require.Error(t, err)
			verrs := ValidationErrors(err)
			require.NotEmpty(t, verrs)
			ve := verrs[0]
			assert.Equal(t, tt.field, ve.Field)
			assert.Contains(t, ve.Error(), tt.message)
			if tt.suggestions != nil {
				require.NotEmpty(t, ve.Suggestions)
				assert.Equal(t, tt.suggestions[0], ve.Suggestions[0])
			}
		})
	}

	t.Run("reports every violation", func(t *testing.T) {
		err := g.Validate(with(
			&schema.Field{Name: "price", Kind: "nubmer"},
			field.Relation("customer", "Nobody").Descriptor(),
		))
		verrs := ValidationErrors(err)
		require.Len(t, verrs, 2)
		assert.Equal(t, "price", verrs[0].Field)
		assert.Equal(t, "customer", verrs[1].Field)
	})

	t.Run("valid collection", func(t *testing.T) {
		c := with(
			field.Date("date").Required().Descriptor(),
			field.Relation("customer", "Customer").Descriptor(),
			field.Relation("staff", "Users").HasMany().Descriptor(),
			field.Relation("service", "Service").Descriptor(),
			field.Text("code").Match(`^[A-Z]{3}-\d{4}$`).Descriptor(),
		)
		c.Admin = &schema.Admin{UseAsTitle: "code", DefaultColumns: []string{"date", "createdAt"}}
		c.Hooks = schema.Hooks{schema.BeforeChange: {"assignCode"}}
		assert.NoError(t, g.Validate(c))
	})
}

func TestValidCollectionName(t *testing.T) {
	for _, name := range []string{"Appointment", "CustomerNote", "Service2", "Func", "Type", "Error", "String"} {
		assert.NoError(t, ValidCollectionName(name), name)
	}
	for _, name := range []string{"", ".Hidden", "Customer_Note", "9Lives", "Bad Name", "appointment"} {
		assert.Error(t, ValidCollectionName(name), name)
	}
}

func TestTypeAccessors(t *testing.T) {
	s := service()
	s.Labels = &schema.Labels{Singular: "Treatment"}
	s.Access = schema.Access{Create: schema.Roles("admin", "manager")}
	g, err := NewGraph(newTestConfig(t), s)
	require.NoError(t, err)
	typ, _ := g.Type("Service")

	assert.Equal(t, "Treatment", typ.Label())
	assert.Equal(t, "Services", typ.PluralName())
	assert.Equal(t, "service", typ.Package())
	assert.Equal(t, "s", typ.Receiver())
	assert.Equal(t, "services", typ.Table())
	assert.Equal(t, schema.Roles("admin", "manager"), typ.Rule(schema.OpCreate))
	assert.Equal(t, schema.AdminOnly, typ.Rule(schema.OpDelete))

	d, _ := typ.Field("durationMinutes")
	assert.Equal(t, "Duration minutes", d.Label())
	assert.Equal(t, "DurationMinutes", d.StructField())
	assert.True(t, d.HasDefault())
	assert.True(t, d.Optional())

	c, _ := typ.Field("category")
	assert.Equal(t, "ServiceCategory", c.EnumName())
	assert.Equal(t, "ServiceCategoryHair", c.EnumConst("hair"))
	assert.Equal(t, "ServiceCategoryV24h", c.EnumConst("24h"))
	assert.Len(t, typ.SelectFields(), 1)
	assert.Len(t, typ.RequiredFields(), 1)
	assert.Len(t, typ.MutableFields(), 3)
}
