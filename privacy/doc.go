// Package privacy provides the access layer of the runtime store.
//
// Every store operation is evaluated against a Policy before it reaches
// the database. A policy is an ordered list of rules; each rule returns
// Allow, Deny or Skip:
//
//   - Allow grants access and stops evaluation
//   - Deny rejects the operation and stops evaluation
//   - Skip continues with the next rule
//
// The store builds one policy per collection with CollectionPolicy: extra
// rules registered on the store run first, then the access rule declared
// by the collection for the operation, which always decides.
//
//	st := store.New(drv, store.WithPolicy(
//	    privacy.OnOperation(privacy.IsOwner("customer"), schema.OpCreate),
//	))
//
// The principal is read from the context with schema.FromContext:
//
//	ctx = schema.NewContext(ctx, &schema.Principal{Subject: "u1", Roles: []string{"staff"}})
//
// Denials carry a *collectiongen.AccessError, whose Anonymous flag tells
// an unauthenticated request from a forbidden one.
package privacy
