// ABOUTME: Tests for sync state and sync log bookkeeping
// ABOUTME: Verifies status transitions, tokens, and import dedup
package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncStateLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	state, err := repo.GetSyncState(ctx, "calendar")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, repo.UpdateSyncStatus(ctx, "calendar", "syncing", nil))
	msg := "token expired"
	require.NoError(t, repo.UpdateSyncStatus(ctx, "calendar", "error", &msg))

	state, err = repo.GetSyncState(ctx, "calendar")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "error", state.Status)
	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, msg, *state.ErrorMessage)

	require.NoError(t, repo.UpdateSyncToken(ctx, "calendar", "next-page"))
	state, err = repo.GetSyncState(ctx, "calendar")
	require.NoError(t, err)
	assert.Equal(t, "idle", state.Status)
	assert.Nil(t, state.ErrorMessage)
	require.NotNil(t, state.LastSyncToken)
	assert.Equal(t, "next-page", *state.LastSyncToken)
	assert.NotNil(t, state.LastSyncTime)

	all, err := repo.GetAllSyncStates(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSyncLogDedup(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	exists, err := repo.SyncLogExists(ctx, "calendar", "evt-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.CreateSyncLog(ctx, "calendar", "evt-1", "activity", "a-1", `{"summary":"Standup"}`))

	exists, err = repo.SyncLogExists(ctx, "calendar", "evt-1")
	require.NoError(t, err)
	assert.True(t, exists)

	entity, err := repo.SyncLogEntity(ctx, "calendar", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", entity)

	entity, err = repo.SyncLogEntity(ctx, "calendar", "evt-2")
	require.NoError(t, err)
	assert.Empty(t, entity)

	assert.Error(t, repo.CreateSyncLog(ctx, "calendar", "evt-1", "activity", "a-2", ""), "source ids are unique")
}
