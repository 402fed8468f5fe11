// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := ChunkText("doc", "A single short paragraph.", 100, 10)
		require.Len(t, chunks, 1)
		assert.Equal(t, "A single short paragraph.", chunks[0].Content)
		assert.Equal(t, 0, chunks[0].Position)
		assert.Equal(t, "doc", chunks[0].DocumentID)
	})

	t.Run("splits at paragraph boundaries", func(t *testing.T) {
		text := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
		chunks := ChunkText("doc", text, 100, 0)
		require.Len(t, chunks, 2)
		assert.Equal(t, strings.Repeat("a", 60), chunks[0].Content)
		assert.Equal(t, strings.Repeat("b", 60), chunks[1].Content)
	})

	t.Run("respects size bound", func(t *testing.T) {
		text := strings.Repeat("word ", 400)
		for _, chunk := range ChunkText("doc", text, 120, 20) {
			assert.LessOrEqual(t, len([]rune(chunk.Content)), 120)
			assert.NotEmpty(t, chunk.Content)
		}
	})

	t.Run("overlap carries tail forward", func(t *testing.T) {
		text := strings.Repeat("x", 100) + "\n\n" + strings.Repeat("y", 50)
		chunks := ChunkText("doc", text, 100, 20)
		require.Len(t, chunks, 2)
		// The second chunk opens with the tail of the first.
		assert.True(t, strings.HasPrefix(chunks[1].Content, strings.Repeat("x", 20)),
			"second chunk should start with overlap from the first")
		assert.Contains(t, chunks[1].Content, strings.Repeat("y", 50))
	})

	t.Run("hard-splits oversized paragraphs", func(t *testing.T) {
		chunks := ChunkText("doc", strings.Repeat("z", 250), 100, 0)
		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c.Content)), 100)
		}
	})

	t.Run("positions are sequential", func(t *testing.T) {
		chunks := ChunkText("doc", strings.Repeat("z", 500), 100, 10)
		for i, c := range chunks {
			assert.Equal(t, i, c.Position)
		}
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		assert.Empty(t, ChunkText("doc", "", 100, 10))
		assert.Empty(t, ChunkText("doc", "\n\n  \n\n", 100, 10))
	})
}

func TestChunkIDStability(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph."

	a := ChunkText("doc", text, 100, 10)
	b := ChunkText("doc", text, 100, 10)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
	}

	// Different content or document produces different IDs.
	c := ChunkText("doc", "Changed paragraph.", 100, 10)
	assert.NotEqual(t, a[0].ID, c[0].ID)
	d := ChunkText("other", text, 100, 10)
	assert.NotEqual(t, a[0].ID, d[0].ID)
	assert.True(t, strings.HasPrefix(d[0].ID, "other-"))
}
