// Package sqlite provides a SQLite-based implementation of the version store
// and the vector index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both interfaces share one connection:
//
//   - VersionStore: chapters, immutable versions and decisions
//   - VectorIndex: version embeddings with brute-force cosine search
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Partial unique indexes keep at most one RAW and one FINAL version per chapter
// even if a caller bypasses the lineage checks.
//
// # Data Location
//
// By default, the database is stored at ~/.folio/data/folio.db
//
// # Thread Safety
//
// Writes to one chapter are serialised by a per-chapter lock and run in a
// transaction. Readers are never blocked thanks to WAL mode.
package sqlite
