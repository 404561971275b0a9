// ABOUTME: PromptRecord store methods with transactional activation
// ABOUTME: Deactivate-then-activate runs in one transaction per owner

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertActivePrompt inserts a new prompt record as the owner's active
// prompt, deactivating any previously active record in the same transaction.
// A reader concurrent with this call observes either the old active record
// or the new one, never zero or two.
func (s *SQLiteStore) InsertActivePrompt(ctx context.Context, rec *PromptRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE prompts SET active = 0 WHERE owner_id = ? AND active = 1`,
		rec.OwnerID,
	); err != nil {
		return fmt.Errorf("deactivating previous prompt: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO prompts (id, owner_id, content, created_at, active)
		VALUES (?, ?, ?, ?, 1)
	`, rec.ID, rec.OwnerID, rec.Content, rec.CreatedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("inserting prompt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing prompt insert: %w", err)
	}

	rec.Active = true
	s.logger.Debug("inserted active prompt", "id", rec.ID, "owner_id", rec.OwnerID)
	return nil
}

// ActivatePrompt reactivates an existing record from the owner's history,
// deactivating the current active record in the same transaction.
// Returns ErrNotFound if the record does not exist or belongs to another
// owner; the two cases are indistinguishable to the caller.
func (s *SQLiteStore) ActivatePrompt(ctx context.Context, ownerID, id string) (*PromptRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rec, err := scanPromptRow(tx.QueryRowContext(ctx, `
		SELECT id, owner_id, content, created_at, active
		FROM prompts
		WHERE id = ? AND owner_id = ?
	`, id, ownerID))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE prompts SET active = 0 WHERE owner_id = ? AND active = 1`,
		ownerID,
	); err != nil {
		return nil, fmt.Errorf("deactivating previous prompt: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE prompts SET active = 1 WHERE id = ?`, id,
	); err != nil {
		return nil, fmt.Errorf("activating prompt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing prompt activation: %w", err)
	}

	rec.Active = true
	s.logger.Debug("reactivated prompt", "id", id, "owner_id", ownerID)
	return rec, nil
}

// DeactivatePrompts deactivates the owner's active prompt record, if any.
// Deactivating when nothing is active is a no-op.
func (s *SQLiteStore) DeactivatePrompts(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE prompts SET active = 0 WHERE owner_id = ? AND active = 1`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("deactivating prompts: %w", err)
	}

	s.logger.Debug("deactivated prompts", "owner_id", ownerID)
	return nil
}

// GetActivePrompt returns the owner's active prompt record.
// Returns ErrNotFound if the owner has no active record.
func (s *SQLiteStore) GetActivePrompt(ctx context.Context, ownerID string) (*PromptRecord, error) {
	return scanPromptRow(s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, content, created_at, active
		FROM prompts
		WHERE owner_id = ? AND active = 1
	`, ownerID))
}

// ListPrompts returns the owner's prompt history, most recent first.
// If limit is 0 or negative, a default limit of 100 is used.
func (s *SQLiteStore) ListPrompts(ctx context.Context, ownerID string, limit int) ([]*PromptRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, content, created_at, active
		FROM prompts
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying prompts: %w", err)
	}
	defer rows.Close()

	var records []*PromptRecord
	for rows.Next() {
		var rec PromptRecord
		var createdAtStr string
		var active int

		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Content, &createdAtStr, &active); err != nil {
			return nil, fmt.Errorf("scanning prompt row: %w", err)
		}

		rec.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		rec.Active = active == 1

		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prompt rows: %w", err)
	}

	return records, nil
}

// CountActivePrompts returns the number of active records for an owner.
// Used by invariant checks; the schema keeps this at 0 or 1.
func (s *SQLiteStore) CountActivePrompts(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM prompts WHERE owner_id = ? AND active = 1`,
		ownerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting active prompts: %w", err)
	}
	return count, nil
}

func scanPromptRow(row *sql.Row) (*PromptRecord, error) {
	var rec PromptRecord
	var createdAtStr string
	var active int

	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Content, &createdAtStr, &active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning prompt: %w", err)
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	rec.Active = active == 1

	return &rec, nil
}
