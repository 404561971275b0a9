// ABOUTME: Tests for the access control gate
// ABOUTME: Covers standard/admin authorization and the allow-list/store layering

package access

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/promptgate/internal/store"
)

func setupGate(t *testing.T, adminIDs ...string) (*Gate, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return NewGate(st, adminIDs), st
}

func TestAuthorize_StandardKnownUser(t *testing.T) {
	gate, st := setupGate(t)
	ctx := context.Background()

	_, err := st.EnsureUser(ctx, "user-1")
	require.NoError(t, err)

	assert.NoError(t, gate.Authorize(ctx, "user-1", store.PermissionStandard))
}

func TestAuthorize_StandardUnknownUserDenied(t *testing.T) {
	gate, _ := setupGate(t)
	ctx := context.Background()

	err := gate.Authorize(ctx, "stranger", store.PermissionStandard)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAuthorize_StandardRevokedUserDenied(t *testing.T) {
	gate, st := setupGate(t)
	ctx := context.Background()

	_, err := st.EnsureUser(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, st.SetPermission(ctx, "user-1", store.PermissionNone))

	err = gate.Authorize(ctx, "user-1", store.PermissionStandard)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAuthorize_AdminRequiresBothLayers(t *testing.T) {
	gate, st := setupGate(t, "admin-1")
	ctx := context.Background()

	// Allow-listed but no persisted admin level: denied
	_, err := st.EnsureUser(ctx, "admin-1")
	require.NoError(t, err)
	assert.ErrorIs(t, gate.Authorize(ctx, "admin-1", store.PermissionAdmin), ErrPermissionDenied)

	// With the persisted level, authorized
	require.NoError(t, st.SetPermission(ctx, "admin-1", store.PermissionAdmin))
	assert.NoError(t, gate.Authorize(ctx, "admin-1", store.PermissionAdmin))
}

func TestAuthorize_AdminNotAllowListedDenied(t *testing.T) {
	gate, st := setupGate(t, "admin-1")
	ctx := context.Background()

	// Persisted admin level but not in the allow-list: denied
	require.NoError(t, st.SetPermission(ctx, "impostor", store.PermissionAdmin))

	err := gate.Authorize(ctx, "impostor", store.PermissionAdmin)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAuthorize_AdminPassesStandardCheck(t *testing.T) {
	gate, st := setupGate(t, "admin-1")
	ctx := context.Background()

	require.NoError(t, st.SetPermission(ctx, "admin-1", store.PermissionAdmin))

	assert.NoError(t, gate.Authorize(ctx, "admin-1", store.PermissionStandard))
}

func TestAuthorize_DenialIsOpaque(t *testing.T) {
	gate, st := setupGate(t, "admin-1")
	ctx := context.Background()

	_, err := st.EnsureUser(ctx, "user-1")
	require.NoError(t, err)

	notListed := gate.Authorize(ctx, "user-1", store.PermissionAdmin)
	unknown := gate.Authorize(ctx, "stranger", store.PermissionStandard)

	// Different failure modes produce the identical sentinel
	assert.ErrorIs(t, notListed, ErrPermissionDenied)
	assert.ErrorIs(t, unknown, ErrPermissionDenied)
	assert.Equal(t, notListed.Error(), unknown.Error())
}

func TestIsAllowListed(t *testing.T) {
	gate, _ := setupGate(t, "admin-1", "admin-2")

	assert.True(t, gate.IsAllowListed("admin-1"))
	assert.True(t, gate.IsAllowListed("admin-2"))
	assert.False(t, gate.IsAllowListed("user-1"))
}
