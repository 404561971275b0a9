// ABOUTME: Store interface and data types for promptgate persistence
// ABOUTME: Defines User, PromptRecord, ForceState and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// PermissionLevel represents a user's access level
type PermissionLevel string

const (
	PermissionNone     PermissionLevel = "none"
	PermissionStandard PermissionLevel = "standard"
	PermissionAdmin    PermissionLevel = "admin"
)

// ValidPermissionLevels lists all valid permission levels
var ValidPermissionLevels = []PermissionLevel{
	PermissionNone,
	PermissionStandard,
	PermissionAdmin,
}

// User represents a known user and their permission level.
// Users are created on first interaction and never deleted; revocation
// sets the level to none.
type User struct {
	ID        string
	Level     PermissionLevel
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PromptRecord represents one system-prompt text owned by a user.
// At most one record per owner is active at any time; superseded records
// are deactivated, never deleted, and remain available for reuse.
type PromptRecord struct {
	ID        string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	Active    bool
}

// ForceState is the process-wide force-default-prompt singleton.
// It is persisted as a single row so an admin lock survives restarts.
type ForceState struct {
	Enabled bool
	SetBy   string
	SetAt   time.Time
}

// Store defines the interface for promptgate persistence
type Store interface {
	// Users / permissions
	EnsureUser(ctx context.Context, id string) (*User, error)
	SetPermission(ctx context.Context, id string, level PermissionLevel) error
	GetPermission(ctx context.Context, id string) (PermissionLevel, error)

	// Prompt records
	InsertActivePrompt(ctx context.Context, rec *PromptRecord) error
	ActivatePrompt(ctx context.Context, ownerID, id string) (*PromptRecord, error)
	DeactivatePrompts(ctx context.Context, ownerID string) error
	GetActivePrompt(ctx context.Context, ownerID string) (*PromptRecord, error)
	ListPrompts(ctx context.Context, ownerID string, limit int) ([]*PromptRecord, error)
	CountActivePrompts(ctx context.Context, ownerID string) (int, error)

	// Force state singleton
	GetForceState(ctx context.Context) (*ForceState, error)
	SetForceState(ctx context.Context, state *ForceState) error

	// Close releases any resources held by the store
	Close() error
}
