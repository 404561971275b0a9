// ABOUTME: User entity and permission-level store methods
// ABOUTME: Users are created on first interaction and mutated only by grant/revoke

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureUser creates a user row with standard permission if none exists and
// returns the current row. Existing rows are returned unchanged, so a
// revoked user stays revoked across interactions.
func (s *SQLiteStore) EnsureUser(ctx context.Context, id string) (*User, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (id, permission_level, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, id, PermissionStandard, now, now)
	if err != nil {
		return nil, fmt.Errorf("ensuring user: %w", err)
	}

	return s.getUser(ctx, id)
}

// SetPermission upserts a user's permission level. Creating a row for an
// unknown user is intentional: revoking an unknown user records a none-level
// row rather than failing.
func (s *SQLiteStore) SetPermission(ctx context.Context, id string, level PermissionLevel) error {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, permission_level, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET permission_level = excluded.permission_level,
		                              updated_at = excluded.updated_at
	`, id, level, now, now)
	if err != nil {
		return fmt.Errorf("setting permission: %w", err)
	}

	s.logger.Debug("set permission", "user_id", id, "level", level)
	return nil
}

// GetPermission returns a user's permission level.
// Unknown users have PermissionNone (not an error).
func (s *SQLiteStore) GetPermission(ctx context.Context, id string) (PermissionLevel, error) {
	var level string
	err := s.db.QueryRowContext(ctx,
		`SELECT permission_level FROM users WHERE id = ?`, id,
	).Scan(&level)

	if err == sql.ErrNoRows {
		return PermissionNone, nil
	}
	if err != nil {
		return PermissionNone, fmt.Errorf("querying permission: %w", err)
	}

	return PermissionLevel(level), nil
}

func (s *SQLiteStore) getUser(ctx context.Context, id string) (*User, error) {
	var user User
	var level, createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, permission_level, created_at, updated_at
		FROM users
		WHERE id = ?
	`, id).Scan(&user.ID, &level, &createdAtStr, &updatedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.Level = PermissionLevel(level)

	user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &user, nil
}
