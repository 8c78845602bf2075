// Package store provides persistent storage for slicehouse using SQLite.
//
// # Architecture
//
// The store package uses an interface-driven architecture with per-entity
// interfaces:
//
//   - UserStore: account records with password hashes and TOTP secrets
//   - SessionStore: server-side browser sessions keyed by opaque cookie IDs
//   - OrderStore: placed orders
//
// SQLiteStore implements all interfaces in a single struct, allowing easy
// composition while maintaining clear interface boundaries. Consumers accept
// the narrowest interface they need; the process entry point owns the
// concrete store and its lifecycle.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Conflicting writes serialize at the storage layer: the unique constraint
// on users.username enforces registration atomicity, and session rotation
// is a delete-then-insert pair against the same handle.
//
// # Error Handling
//
// Common errors:
//
//   - ErrUserNotFound: requested user does not exist
//   - ErrUsernameExists: registration would violate username uniqueness
//   - ErrSessionNotFound: session absent or expired
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewSQLiteStore with a t.TempDir() path, or ":memory:" for an
// in-memory database.
package store
