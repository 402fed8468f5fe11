// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectordb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mximoph/mximoph/pkg/types"
)

func testStore(t *testing.T) *sqliteStore {
	t.Helper()
	cfg := types.StorageConfig{
		Backend:    types.BackendSQLite,
		Path:       filepath.Join(t.TempDir(), "index", "test.db"),
		Collection: "science_docs",
	}
	store, err := openSQLite(context.Background(), cfg, 4)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func chunk(id, doc, content string, pos int, vec []float32) types.Chunk {
	return types.Chunk{
		ID:         id,
		DocumentID: doc,
		Content:    content,
		Position:   pos,
		Embedding:  vec,
	}
}

func TestSQLiteSchemaIdempotent(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, store.EnsureSchema(context.Background()))
}

func TestSQLiteUpsertAndSearch(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	chunks := []types.Chunk{
		chunk("c1", "chem2024", "Proteins are life's ingenious chemical tools", 0, []float32{1, 0, 0, 0}),
		chunk("c2", "chem2024", "AlphaFold2 predicts protein structures from sequences", 1, []float32{0, 1, 0, 0}),
		chunk("c3", "chem2024", "The Nobel Prize in Chemistry 2024 concerns proteins", 2, []float32{0.9, 0.1, 0, 0}),
	}
	require.NoError(t, store.Upsert(ctx, chunks, "Chemistry Prize 2024"))

	results, err := store.Search(ctx, []float32{1, 0, 0, 0}, "", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// c1 is an exact match, c3 is the nearest neighbour.
	assert.Equal(t, "c1", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "c3", results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, "Chemistry Prize 2024", results[0].DocumentTitle)
	assert.Nil(t, results[0].Embedding)
}

func TestSQLiteUpsertIsIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	c := chunk("c1", "doc", "stable content", 0, []float32{1, 0, 0, 0})
	require.NoError(t, store.Upsert(ctx, []types.Chunk{c}, ""))
	require.NoError(t, store.Upsert(ctx, []types.Chunk{c}, ""))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.Documents)
}

func TestSQLiteRejectsWrongDimension(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []types.Chunk{chunk("c1", "doc", "x", 0, []float32{1, 0})}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")

	_, err = store.Search(ctx, []float32{1, 0}, "", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

// ftsEnabled reports whether the FTS index was created, which requires
// go-sqlite3 compiled with the sqlite_fts5 build tag.
func ftsEnabled(t *testing.T, store *sqliteStore) bool {
	t.Helper()
	var n int
	err := store.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`,
		store.collection+"_fts",
	).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestSQLiteTextPrefilter(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if !ftsEnabled(t, store) {
		t.Skip("go-sqlite3 built without fts5; run tests with -tags sqlite_fts5")
	}

	chunks := []types.Chunk{
		chunk("c1", "doc", "hydrolases catalyze hydrolysis reactions", 0, []float32{1, 0, 0, 0}),
		chunk("c2", "doc", "transformers use attention mechanisms", 1, []float32{0.99, 0.1, 0, 0}),
	}
	require.NoError(t, store.Upsert(ctx, chunks, ""))

	// The text hint narrows candidates to the FTS match even though c2 is
	// the closer vector.
	results, err := store.Search(ctx, []float32{1, 0, 0, 0}, "hydrolases", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)

	// An unmatched hint falls back to the full scan.
	results, err = store.Search(ctx, []float32{1, 0, 0, 0}, "zymurgy", 5)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Punctuation in the hint must not break the MATCH expression.
	_, err = store.Search(ctx, []float32{1, 0, 0, 0}, `"broken (syntax`, 5)
	require.NoError(t, err)
}

func TestSQLiteDeleteDocument(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []types.Chunk{
		chunk("a1", "keep", "kept text", 0, []float32{1, 0, 0, 0}),
		chunk("b1", "drop", "dropped text", 0, []float32{0, 1, 0, 0}),
	}, ""))

	require.NoError(t, store.DeleteDocument(ctx, "drop"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)

	// The FTS delete trigger must have removed the dropped row too.
	results, err := store.Search(ctx, []float32{0, 1, 0, 0}, "dropped", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a1", results[0].ID)
}

func TestSQLiteDropCollection(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []types.Chunk{
		chunk("c1", "doc", "text", 0, []float32{1, 0, 0, 0}),
	}, ""))
	require.NoError(t, store.DropCollection(ctx))

	// Schema can be recreated from scratch afterwards.
	require.NoError(t, store.EnsureSchema(ctx))
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Chunks)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), types.StorageConfig{Backend: "duckdb"}, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}
