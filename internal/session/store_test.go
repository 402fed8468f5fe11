// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mximoph/mximoph/pkg/types"
)

func testSessionStore(t *testing.T) *Store {
	t.Helper()
	cfg := types.StorageConfig{
		Backend:      types.BackendSQLite,
		Path:         filepath.Join(t.TempDir(), "sessions.db"),
		SessionTable: "science_assistant",
	}
	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := testSessionStore(t)
	ctx := context.Background()

	run, err := store.Create(ctx, "default_user")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "default_user", run.UserID)
	assert.Empty(t, run.Messages)

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "default_user", got.UserID)
}

func TestGetMissingRun(t *testing.T) {
	store := testSessionStore(t)

	_, err := store.Get(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAppendPreservesOrder(t *testing.T) {
	store := testSessionStore(t)
	ctx := context.Background()

	run, err := store.Create(ctx, "u1")
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, store.Append(ctx, run.ID,
		types.Message{Role: types.RoleUser, Content: "what are proteins?", CreatedAt: now},
		types.Message{Role: types.RoleAssistant, Content: "Proteins are...", CreatedAt: now},
	))
	require.NoError(t, store.Append(ctx, run.ID,
		types.Message{Role: types.RoleUser, Content: "and enzymes?", CreatedAt: now},
	))

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "what are proteins?", got.Messages[0].Content)
	assert.Equal(t, types.RoleAssistant, got.Messages[1].Role)
	assert.Equal(t, "and enzymes?", got.Messages[2].Content)
}

func TestAppendToMissingRun(t *testing.T) {
	store := testSessionStore(t)

	err := store.Append(context.Background(), "no-such-run",
		types.Message{Role: types.RoleUser, Content: "hello"})
	require.Error(t, err)
}

func TestListRunIDsNewestFirst(t *testing.T) {
	store := testSessionStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "u1")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := store.Create(ctx, "u1")
	require.NoError(t, err)

	// Another user's runs must not leak in.
	_, err = store.Create(ctx, "u2")
	require.NoError(t, err)

	ids, err := store.ListRunIDs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, second.ID, ids[0])
	assert.Equal(t, first.ID, ids[1])
}

func TestResume(t *testing.T) {
	store := testSessionStore(t)
	ctx := context.Background()

	t.Run("no runs yields nil", func(t *testing.T) {
		run, err := store.Resume(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("picks the newest run", func(t *testing.T) {
		_, err := store.Create(ctx, "u1")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
		latest, err := store.Create(ctx, "u1")
		require.NoError(t, err)

		run, err := store.Resume(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Equal(t, latest.ID, run.ID)
	})
}

func TestDelete(t *testing.T) {
	store := testSessionStore(t)
	ctx := context.Background()

	run, err := store.Create(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, run.ID))
	_, err = store.Get(ctx, run.ID)
	require.Error(t, err)

	require.Error(t, store.Delete(ctx, run.ID))
}

func TestRebind(t *testing.T) {
	s := &Store{postgres: true}
	assert.Equal(t, `SELECT a FROM t WHERE x = $1 AND y = $2`,
		s.rebind(`SELECT a FROM t WHERE x = ? AND y = ?`))

	s.postgres = false
	assert.Equal(t, `SELECT a FROM t WHERE x = ?`, s.rebind(`SELECT a FROM t WHERE x = ?`))
}
