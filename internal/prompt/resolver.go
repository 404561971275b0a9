// ABOUTME: Prompt resolution state machine: default, custom, and forced states
// ABOUTME: Force mode masks custom prompts at read time without mutating them

package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/2389/promptgate/internal/access"
	"github.com/2389/promptgate/internal/store"
)

// MaxPromptLength is the maximum system prompt length in characters.
const MaxPromptLength = 4000

// ErrPromptTooLong indicates the prompt text exceeds MaxPromptLength.
var ErrPromptTooLong = errors.New("prompt too long")

// ErrBlockedByForceMode indicates the operation is disabled while an admin
// has forced the default prompt.
var ErrBlockedByForceMode = errors.New("blocked by force mode")

// Resolver computes the effective system prompt for each user and manages
// prompt state transitions. Per-user mutations are serialized with a keyed
// mutex on top of the store's transactional writes; resolution itself is
// read-only and lock-free.
type Resolver struct {
	store         store.Store
	gate          *access.Gate
	staticDefault string
	logger        *slog.Logger

	// serializes force-state transitions
	forceMu sync.Mutex

	userMu    sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewResolver creates a resolver over the given store.
// staticDefault is the startup-loaded default prompt returned whenever a
// user has no active custom prompt or force mode is enabled.
func NewResolver(st store.Store, gate *access.Gate, staticDefault string) *Resolver {
	return &Resolver{
		store:         st,
		gate:          gate,
		staticDefault: staticDefault,
		logger:        slog.Default().With("component", "prompt"),
		userLocks:     make(map[string]*sync.Mutex),
	}
}

// StaticDefault returns the startup-loaded default prompt
func (r *Resolver) StaticDefault() string {
	return r.staticDefault
}

// lockUser returns the mutex serializing one user's prompt mutations
func (r *Resolver) lockUser(userID string) *sync.Mutex {
	r.userMu.Lock()
	defer r.userMu.Unlock()

	mu, ok := r.userLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		r.userLocks[userID] = mu
	}
	return mu
}

// SetPrompt validates and stores a new custom prompt as the user's active
// record, deactivating the previous one. Allowed while force mode is
// enabled: the activation is preserved but masked until unlock.
func (r *Resolver) SetPrompt(ctx context.Context, userID, text string) (*store.PromptRecord, error) {
	if utf8.RuneCountInString(text) > MaxPromptLength {
		return nil, fmt.Errorf("%w: %d characters (max %d)",
			ErrPromptTooLong, utf8.RuneCountInString(text), MaxPromptLength)
	}

	mu := r.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	rec := &store.PromptRecord{
		ID:        uuid.NewString(),
		OwnerID:   userID,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.InsertActivePrompt(ctx, rec); err != nil {
		return nil, fmt.Errorf("storing prompt: %w", err)
	}

	r.logger.Info("custom prompt set", "user_id", userID, "prompt_id", rec.ID)
	return rec, nil
}

// ResetPrompt deactivates the user's active custom prompt, returning the
// user to the default state. Fails with ErrBlockedByForceMode while force
// mode is enabled: a reset under force must not silently succeed.
func (r *Resolver) ResetPrompt(ctx context.Context, userID string) error {
	state, err := r.store.GetForceState(ctx)
	if err != nil {
		return fmt.Errorf("reading force state: %w", err)
	}
	if state.Enabled {
		return ErrBlockedByForceMode
	}

	mu := r.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := r.store.DeactivatePrompts(ctx, userID); err != nil {
		return fmt.Errorf("resetting prompt: %w", err)
	}

	r.logger.Info("prompt reset to default", "user_id", userID)
	return nil
}

// ReusePrompt reactivates a record from the user's own history.
// A record id that does not exist or belongs to another user fails with
// store.ErrNotFound; the two cases are indistinguishable. Like SetPrompt,
// reuse is allowed but masked while force mode is enabled.
func (r *Resolver) ReusePrompt(ctx context.Context, userID, recordID string) (*store.PromptRecord, error) {
	mu := r.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	rec, err := r.store.ActivatePrompt(ctx, userID, recordID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reusing prompt: %w", err)
	}

	r.logger.Info("prompt reused", "user_id", userID, "prompt_id", recordID)
	return rec, nil
}

// ListHistory returns the user's prompt records, most recent first.
// Always available, regardless of force mode.
func (r *Resolver) ListHistory(ctx context.Context, userID string) ([]*store.PromptRecord, error) {
	records, err := r.store.ListPrompts(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("listing prompt history: %w", err)
	}
	return records, nil
}

// ForceDefault enables force mode: every user resolves to the static
// default until unlock. Requires admin authorization. Idempotent; a
// repeat call keeps the original set_by for audit.
func (r *Resolver) ForceDefault(ctx context.Context, actorID string) error {
	if err := r.gate.Authorize(ctx, actorID, store.PermissionAdmin); err != nil {
		return err
	}

	r.forceMu.Lock()
	defer r.forceMu.Unlock()

	state, err := r.store.GetForceState(ctx)
	if err != nil {
		return fmt.Errorf("reading force state: %w", err)
	}
	if state.Enabled {
		return nil
	}

	if err := r.store.SetForceState(ctx, &store.ForceState{
		Enabled: true,
		SetBy:   actorID,
		SetAt:   time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("enabling force mode: %w", err)
	}

	r.logger.Info("force mode enabled", "set_by", actorID)
	return nil
}

// Unlock disables force mode. Requires admin authorization. Idempotent.
// Custom prompts that stayed active under the mask become visible again
// immediately; no per-user state is touched.
func (r *Resolver) Unlock(ctx context.Context, actorID string) error {
	if err := r.gate.Authorize(ctx, actorID, store.PermissionAdmin); err != nil {
		return err
	}

	r.forceMu.Lock()
	defer r.forceMu.Unlock()

	state, err := r.store.GetForceState(ctx)
	if err != nil {
		return fmt.Errorf("reading force state: %w", err)
	}
	if !state.Enabled {
		return nil
	}

	if err := r.store.SetForceState(ctx, &store.ForceState{
		Enabled: false,
		SetBy:   actorID,
		SetAt:   time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("disabling force mode: %w", err)
	}

	r.logger.Info("force mode disabled", "set_by", actorID)
	return nil
}

// ForceState returns the current force-mode state for display
func (r *Resolver) ForceState(ctx context.Context) (*store.ForceState, error) {
	return r.store.GetForceState(ctx)
}

// Resolve computes the effective system prompt for a user, evaluated
// fresh on every request:
//
//  1. force mode enabled -> static default
//  2. active custom record -> its content
//  3. otherwise -> static default
func (r *Resolver) Resolve(ctx context.Context, userID string) (string, error) {
	state, err := r.store.GetForceState(ctx)
	if err != nil {
		return "", fmt.Errorf("reading force state: %w", err)
	}
	if state.Enabled {
		return r.staticDefault, nil
	}

	rec, err := r.store.GetActivePrompt(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return r.staticDefault, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading active prompt: %w", err)
	}

	return rec.Content, nil
}
