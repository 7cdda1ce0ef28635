// Package store persists save slots in SQLite.
//
// Each slot holds one save blob: the session snapshot encoded as RFC 8785
// canonical JSON, together with a domain-separated SHA-256 of those bytes.
// The hash is checked on every read, so a blob edited outside the game is
// refused rather than half-restored.
//
// # Database Configuration
//
//   - WAL mode: the CLI can read slots while a game writes them
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait up to 5 seconds for a lock
//
// Schema changes are numbered migrations tracked in PRAGMA user_version.
//
// seq counts writes to a slot. It is a logical clock; saves are never
// ordered by wall time.
package store
