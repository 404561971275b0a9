// Package store provides persistence for promptgate.
//
// # Overview
//
// The store owns three tables in a single SQLite database:
//
//   - users: user id -> permission level (none, standard, admin)
//   - prompts: per-user system-prompt records with an active flag
//   - force_state: a singleton row for the admin force-default lock
//
// # Active prompt invariant
//
// At most one prompt row per owner has active = 1. This is enforced twice:
// a partial unique index on (owner_id) WHERE active = 1, and every
// activation running deactivate-then-activate inside one transaction.
// Readers never observe an owner with zero-and-then-two active rows
// mid-switch.
//
// # Timestamps
//
// All timestamps are stored as RFC3339 strings in UTC.
//
// # Errors
//
// Lookups for missing entities return ErrNotFound. Permission lookups are
// the exception: an unknown user reads as PermissionNone, because users
// are created lazily on first interaction.
//
// # Implementation
//
// SQLiteStore uses modernc.org/sqlite (pure Go, no cgo) with WAL mode
// enabled. The Store interface exists so services can be tested against
// fakes, though package tests use a real temp-dir database.
package store
