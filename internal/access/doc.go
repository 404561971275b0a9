// Package access implements the authorization gate for promptgate actions.
//
// # Levels
//
// Two levels are checked: standard (any known, non-revoked user) and admin.
// Admin requires both membership in the static allow-list (configuration or
// PROMPTGATE_ADMIN_IDS) and a persisted admin permission level; either one
// alone is not enough.
//
// # Denial
//
// Authorize returns the single sentinel ErrPermissionDenied for every
// failure mode, including store errors. Callers and end users learn only
// that access was denied; the specific reason stays in operator logs.
package access
