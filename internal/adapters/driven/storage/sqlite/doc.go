// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - CollectionStore: the durable name to handle registry
//   - DocumentStore: chunk persistence, one namespace per collection handle
//   - PendingStore: changed uploads staged until confirmed
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Search
//
// SQLite has no similarity engine, so Search loads the collection's chunks and
// ranks them in process with the rank package: by cosine similarity when an
// embedder is configured, by keyword score otherwise.
//
// # Data Location
//
// By default, the database is stored at ~/.ragbox/data/ragbox.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
