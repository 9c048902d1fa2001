// Package sqlite provides the SQLite-backed domain.LocationStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Known locations live in the locations table and the negative cache in
// unknown_locations; both carry a UNIQUE constraint on name.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the migrations/
// directory. Applied versions are recorded in schema_migrations.
//
// # Concurrency
//
// The pool is limited to one connection, so transactions are serialized in-process
// and a resolution that reads, geocodes and writes cannot interleave with another.
package sqlite
