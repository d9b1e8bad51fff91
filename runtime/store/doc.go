// Package store runs the operations of generated collection services
// against a SQL database.
//
// A Store wraps a dialect.Driver. Each schema.Collection is bound to its
// table with Store.Collection, which returns a *Collection exposing List,
// Get, Create, Update, Delete, Count and Exists:
//
//	st, err := store.Open("sqlite", "file:salon.db", store.WithHooks(registry))
//	if err != nil {
//		return err
//	}
//	appointments, err := st.Collection(appointment.Collection)
//	if err != nil {
//		return err
//	}
//	page, err := appointments.List(ctx, query.New().WhereEq("status", "booked").Build())
//
// Records are column keyed maps. Create assigns the id and the timestamps,
// applies defaults and checks every field before anything is written.
// Access rules are evaluated with the privacy package against the principal
// found in the context, and lifecycle hooks run around persistence.
package store
