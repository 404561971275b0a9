// Package prompt resolves the effective system prompt for each user.
//
// # States
//
// A user is in one of three prompt states, checked in order at every
// resolution:
//
//   - forced: an admin enabled force mode, every user gets the static
//     default regardless of their own records
//   - custom: the user has an active record, its content is used
//   - default: no active record, the static default is used
//
// Force mode is a mask, not a mutation. Enabling it leaves every user's
// active record untouched; unlocking restores custom prompts exactly as
// they were. SetPrompt and ReusePrompt keep working under force mode
// (their effect is hidden until unlock), while ResetPrompt fails with
// ErrBlockedByForceMode so a reset can never silently succeed.
//
// # Concurrency
//
// Mutations for one user are serialized with a keyed mutex; the store
// additionally runs each activation inside one transaction against a
// partial unique index, so at most one record per user is ever active.
// Force-mode transitions hold their own mutex and write through to the
// store, so the mode survives restarts.
package prompt
