// Package sqlite persists the vector index in a single SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. The manifest table holds one row describing how the
// index was built; the chunks table holds chunk text, locators and embeddings.
//
// # Data Location
//
// By default, the database is stored at ~/.regbot/index/index.db
//
// # Thread Safety
//
// All operations are thread-safe. Save and Remove run in a transaction, so a
// reader sees either the old index or the new one.
package sqlite
