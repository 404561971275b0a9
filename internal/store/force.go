// ABOUTME: ForceState singleton row persistence
// ABOUTME: Persisting the row means an admin lock survives process restarts

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GetForceState returns the force-state singleton.
// A missing row means force mode has never been toggled; a disabled state
// is returned rather than ErrNotFound.
func (s *SQLiteStore) GetForceState(ctx context.Context) (*ForceState, error) {
	var enabled int
	var setBy, setAt sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT enabled, set_by, set_at FROM force_state WHERE id = 1`,
	).Scan(&enabled, &setBy, &setAt)

	if err == sql.ErrNoRows {
		return &ForceState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying force state: %w", err)
	}

	state := &ForceState{Enabled: enabled == 1}
	if setBy.Valid {
		state.SetBy = setBy.String
	}
	if setAt.Valid {
		t, err := time.Parse(time.RFC3339, setAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing set_at: %w", err)
		}
		state.SetAt = t
	}

	return state, nil
}

// SetForceState upserts the force-state singleton row
func (s *SQLiteStore) SetForceState(ctx context.Context, state *ForceState) error {
	enabled := 0
	if state.Enabled {
		enabled = 1
	}

	var setAt any
	if !state.SetAt.IsZero() {
		setAt = state.SetAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO force_state (id, enabled, set_by, set_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET enabled = excluded.enabled,
		                              set_by  = excluded.set_by,
		                              set_at  = excluded.set_at
	`, enabled, nullString(state.SetBy), setAt)
	if err != nil {
		return fmt.Errorf("setting force state: %w", err)
	}

	s.logger.Debug("set force state", "enabled", state.Enabled, "set_by", state.SetBy)
	return nil
}
