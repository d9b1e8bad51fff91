// Package schema provides the framework-neutral description of a collection.
//
// A Collection is an ordered list of Fields plus per-operation access rules
// and named lifecycle hooks. Definitions are plain values: they can be built
// in Go with the [field] builders, or decoded from JSON/YAML by the
// compiler/load package.
//
//	appointment := &schema.Collection{
//	    Name: "Appointment",
//	    Fields: []*schema.Field{
//	        field.Date("date").Required().Descriptor(),
//	        field.Relation("customer", "Customer").Descriptor(),
//	    },
//	    Access: schema.Access{Delete: schema.AdminOnly},
//	}
//
// # Field Kinds
//
//	text      plain string
//	number    float64
//	boolean   bool
//	date      RFC 3339 timestamp or YYYY-MM-DD date
//	relation  id (or list of ids) of a record in another collection
//	select    one of a fixed option list
//	richtext  structured document (JSON)
//
// # Access Rules
//
// Each operation carries an [AccessRule]:
//
//	public              anyone
//	authenticated       any principal
//	adminOnly           principals with the admin role
//	roles:editor,staff  principals holding one of the listed roles
//
// Definitions are never mutated by the generator or the runtime. Use
// [Collection.Clone] before modifying a shared definition.
package schema
