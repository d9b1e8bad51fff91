// Package collectiongen generates CMS collection modules from declarative
// collection definitions and runs generated collections against SQL and
// document stores.
//
// The module is organized in layers:
//
//	schema/           collection definitions: fields, kinds, access, hooks
//	compiler/load     definitions files (YAML, JSON)
//	compiler/gen      validation graph, generator, atomic writer
//	compiler/gen/...  translators (payload, go) and emitters (graphql, migrate)
//	query/            list options and filter predicates
//	dialect/          SQL and MongoDB query translation
//	privacy/          access rule evaluation
//	runtime/store     CRUD over database/sql with hooks and change feeds
//	runtime/cache     Redis list cache
//	runtime/rest      HTTP and websocket surface
//	cmd/collectiongen command line tool
//
// This package holds the runtime error types shared by the layers and the
// Cache contract implemented by runtime/cache.
package collectiongen
