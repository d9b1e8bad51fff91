package payload_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernmen/collectiongen/compiler/gen"
	"github.com/modernmen/collectiongen/compiler/gen/payload"
	"github.com/modernmen/collectiongen/compiler/load"
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

const appointmentConfig = `// Code generated by collectiongen. DO NOT EDIT.

import type { CollectionConfig } from 'payload'

type AccessUser = { roles?: string[] } | null | undefined

const hasRole = (user: AccessUser, roles: string[]): boolean =>
  Boolean(user?.roles?.some((role) => role === 'admin' || roles.includes(role)))

export const Appointments: CollectionConfig = {
  slug: 'appointments',
  labels: {
    singular: 'Appointment',
    plural: 'Appointments',
  },
  access: {
    create: ({ req: { user } }) => Boolean(user),
    read: ({ req: { user } }) => Boolean(user),
    update: ({ req: { user } }) => Boolean(user),
    delete: ({ req: { user } }) => hasRole(user as AccessUser, []),
  },
  timestamps: true,
  fields: [
    {
      name: 'date',
      type: 'date',
      required: true,
    },
    {
      name: 'customer',
      type: 'relationship',
      relationTo: 'customers',
    },
  ],
}

export default Appointments
`

func TestAppointment(t *testing.T) {
	res, err := gen.Generate(appointment(), gen.WithTarget(payload.New()), gen.WithExternal("Customer"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"collections/Appointments.ts",
		"services/appointments.ts",
		"types/appointments.ts",
	}, res.Paths())

	t.Run("config lists both fields in order", func(t *testing.T) {
		assert.Equal(t, appointmentConfig, string(res.Config().Content))
	})

	t.Run("service exposes the CRUD operations", func(t *testing.T) {
		svc := string(res.Service().Content)
		for _, fn := range []string{
			"export async function list(payload: Payload, options: QueryOptions = {}): Promise<Page<Appointment>>",
			"export async function get(payload: Payload, id: string): Promise<Appointment | null>",
			"export async function create(payload: Payload, data: CreateAppointmentInput): Promise<Appointment>",
			"export async function update(payload: Payload, id: string, data: UpdateAppointmentInput): Promise<Appointment>",
			"export async function remove(payload: Payload, id: string): Promise<boolean>",
			"export async function count(",
			"export async function exists(",
			"export async function findByDateRange(",
			"export { remove as delete }",
			"  delete: remove,",
		} {
			assert.Contains(t, svc, fn)
		}
		assert.Contains(t, svc, "export const slug = 'appointments'")
		assert.Contains(t, svc, "export const DEFAULT_PAGE = 1")
		assert.Contains(t, svc, "export const DEFAULT_PAGE_SIZE = 10")
		assert.Contains(t, svc, "const fields: readonly string[] = ['id', 'createdAt', 'updatedAt', 'date', 'customer']")
		assert.Contains(t, svc, "} from '../types/appointments'")
		assert.NotContains(t, svc, "export async function search(")
	})

	t.Run("types mirror the collection", func(t *testing.T) {
		types := string(res.Types().Content)
		assert.Contains(t, types, "export interface Appointment {\n  id: string\n  date: string\n  customer?: string | null\n  createdAt: string\n  updatedAt: string\n}\n")
		assert.Contains(t, types, "export interface CreateAppointmentInput {\n  date: string\n  customer?: string | null\n}\n")
		assert.Contains(t, types, "export interface UpdateAppointmentInput {\n  date?: string\n  customer?: string | null\n}\n")
		assert.Contains(t, types, "export type AppointmentField = 'id' | 'createdAt' | 'updatedAt' | 'date' | 'customer'")
	})

	t.Run("regeneration is byte-identical", func(t *testing.T) {
		again, err := gen.Generate(appointment(), gen.WithTarget(payload.New()), gen.WithExternal("Customer"))
		require.NoError(t, err)
		for i := range res.Artifacts {
			assert.Equal(t, string(res.Artifacts[i].Content), string(again.Artifacts[i].Content))
		}
	})
}

func TestGoKeywordNames(t *testing.T) {
	for _, name := range []string{"Type", "Error", "Func"} {
		t.Run(name, func(t *testing.T) {
			c := &schema.Collection{
				Name:   name,
				Slug:   strings.ToLower(name) + "s",
				Fields: []*schema.Field{field.Text("title").Required().Descriptor()},
			}
			res, err := gen.Generate(c, gen.WithTarget(payload.New()))
			require.NoError(t, err)
			assert.Contains(t, string(res.Service().Content), "export const slug = '"+c.Slug+"'")
		})
	}
}

func TestTypesDisabled(t *testing.T) {
	res, err := gen.Generate(appointment(),
		gen.WithTarget(payload.New()),
		gen.WithExternal("Customer"),
		gen.WithTypes(false),
		gen.WithHeader(""),
	)
	require.NoError(t, err)
	assert.Nil(t, res.Types())
	svc := string(res.Service().Content)
	assert.True(t, strings.HasPrefix(svc, "import type { PaginatedDocs, Payload, Where } from 'payload'"))
	assert.Contains(t, svc, "export type Appointment = { id: string } & Record<string, unknown>")
	assert.NotContains(t, svc, "../types/")
}

func TestSalon(t *testing.T) {
	doc, err := load.LoadFile("../../load/testdata/salon.yaml")
	require.NoError(t, err)
	cfg, err := gen.NewConfig(
		gen.WithTarget(payload.New(payload.WithHooksModule("../lib/hooks"))),
		gen.WithExternal(doc.External...),
	)
	require.NoError(t, err)
	g, err := gen.NewGraph(cfg, doc.Collections...)
	require.NoError(t, err)
	generator, err := gen.NewGenerator(g)
	require.NoError(t, err)
	results, err := generator.GenerateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	t.Run("appointment config", func(t *testing.T) {
		cfg := string(results[0].Config().Content)
		for _, s := range []string{
			"import { normalizeStatus, notifyStylist } from '../lib/hooks'",
			"    useAsTitle: 'code',",
			"    read: () => true,",
			"    beforeChange: [normalizeStatus],",
			"    afterChange: [notifyStylist],",
			"      unique: true,",
			"      minLength: 3,",
			"      maxLength: 12,",
			"new RegExp('^[A-Z0-9-]+$').test(String(value))",
			"      options: ['booked', 'completed', 'cancelled'],",
			"      defaultValue: 'booked',",
			"      type: 'checkbox',",
			"      defaultValue: false,",
			"      type: 'richText',",
			"      min: 0,",
		} {
			assert.Contains(t, cfg, s)
		}
		assert.Less(t, strings.Index(cfg, "beforeChange"), strings.Index(cfg, "afterChange"))
	})

	t.Run("appointment types", func(t *testing.T) {
		types := string(results[0].Types().Content)
		assert.True(t, strings.HasPrefix(types, "// Code generated by collectiongen. DO NOT EDIT.\n\nexport type AppointmentStatus = 'booked' | 'completed' | 'cancelled'\n\n"))
		assert.Contains(t, types, "  status?: AppointmentStatus | null\n")
		assert.Contains(t, types, "  notes?: unknown | null\n")
	})

	t.Run("service config", func(t *testing.T) {
		cfg := string(results[1].Config().Content)
		assert.Contains(t, cfg, "    create: ({ req: { user } }) => hasRole(user as AccessUser, ['admin', 'manager']),")
		assert.Contains(t, cfg, "      defaultValue: 30,")
		assert.NotContains(t, cfg, "hooks")

		types := string(results[1].Types().Content)
		assert.Contains(t, types, "export interface CreateServiceInput {\n  title: string\n  durationMinutes?: number\n}\n")

		svc := string(results[1].Service().Content)
		assert.Contains(t, svc, "export async function search(")
		assert.Contains(t, svc, "{ or: ['title'].map(")
		assert.NotContains(t, svc, "findByDateRange")
	})
}

func TestLiterals(t *testing.T) {
	c := &schema.Collection{
		Name: "Note",
		Fields: []*schema.Field{
			field.Text("body").Default("it's a \\ test\n").Label("Body text").Comment("Shown on the card").Descriptor(),
			field.RichText("doc").Default(map[string]any{"root": []any{"p", 1.5}, "type-x": true}).Descriptor(),
			field.Text("ref").ReadOnly().Index().Descriptor(),
		},
	}
	res, err := gen.Generate(c, gen.WithTarget(payload.New()))
	require.NoError(t, err)
	cfg := string(res.Config().Content)
	assert.Contains(t, cfg, `defaultValue: 'it\'s a \\ test\n',`)
	assert.Contains(t, cfg, "label: 'Body text',")
	assert.Contains(t, cfg, "admin: { description: 'Shown on the card' },")
	assert.Contains(t, cfg, `defaultValue: { root: ['p', 1.5], 'type-x': true },`)
	assert.Contains(t, cfg, "admin: { readOnly: true },")
	assert.Contains(t, cfg, "index: true,")

	types := string(res.Types().Content)
	assert.Contains(t, types, "export interface CreateNoteInput {\n  body?: string | null\n  doc?: unknown | null\n}\n")
}
