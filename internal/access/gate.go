// ABOUTME: Access control gate for promptgate actions
// ABOUTME: Checks the static admin allow-list first, then the persisted level

package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/2389/promptgate/internal/store"
)

// ErrPermissionDenied is returned when authorization fails.
// It carries no detail about which check failed.
var ErrPermissionDenied = errors.New("permission denied")

// Gate authorizes actions against a required permission level.
// Admin checks require both the static allow-list and the persisted level.
type Gate struct {
	store    store.Store
	adminIDs map[string]struct{}
	logger   *slog.Logger
}

// NewGate creates a gate over the given store and static admin allow-list
func NewGate(st store.Store, adminIDs []string) *Gate {
	ids := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}
	return &Gate{
		store:    st,
		adminIDs: ids,
		logger:   slog.Default().With("component", "access"),
	}
}

// Authorize checks that the user meets the required permission level.
// Returns nil on success and ErrPermissionDenied on any denial; callers
// learn nothing about which layer denied. Store failures are logged and
// reported as denial rather than leaking persistence detail.
func (g *Gate) Authorize(ctx context.Context, userID string, required store.PermissionLevel) error {
	switch required {
	case store.PermissionStandard:
		return g.authorizeStandard(ctx, userID)
	case store.PermissionAdmin:
		return g.authorizeAdmin(ctx, userID)
	case store.PermissionNone:
		return nil
	default:
		g.logger.Warn("unknown required level", "level", required)
		return ErrPermissionDenied
	}
}

// IsAllowListed reports whether the user id is in the static admin allow-list
func (g *Gate) IsAllowListed(userID string) bool {
	_, ok := g.adminIDs[userID]
	return ok
}

func (g *Gate) authorizeStandard(ctx context.Context, userID string) error {
	level, err := g.store.GetPermission(ctx, userID)
	if err != nil {
		g.logger.Error("permission lookup failed", "user_id", userID, "error", err)
		return ErrPermissionDenied
	}

	if level == store.PermissionNone {
		g.logger.Debug("standard access denied", "user_id", userID)
		return ErrPermissionDenied
	}

	return nil
}

func (g *Gate) authorizeAdmin(ctx context.Context, userID string) error {
	if !g.IsAllowListed(userID) {
		g.logger.Debug("admin access denied: not allow-listed", "user_id", userID)
		return ErrPermissionDenied
	}

	level, err := g.store.GetPermission(ctx, userID)
	if err != nil {
		g.logger.Error("permission lookup failed", "user_id", userID, "error", err)
		return ErrPermissionDenied
	}

	if level != store.PermissionAdmin {
		g.logger.Debug("admin access denied: level not admin", "user_id", userID, "level", level)
		return ErrPermissionDenied
	}

	return nil
}
