// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mximoph/mximoph/pkg/types"
)

// ChunkText splits document text into chunks of at most size runes,
// preferring paragraph boundaries. Each chunk starts with the last overlap
// runes of its predecessor so passages spanning a boundary stay
// retrievable. Per prd001-ingestion R3.1-R3.3.
func ChunkText(documentID, text string, size, overlap int) []types.Chunk {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var (
		chunks  []types.Chunk
		current []rune
	)

	flush := func() {
		content := strings.TrimSpace(string(current))
		if content == "" {
			current = current[:0]
			return
		}
		chunks = append(chunks, types.Chunk{
			DocumentID: documentID,
			Content:    content,
			Position:   len(chunks),
		})
		if overlap > 0 && len(current) > overlap {
			tail := make([]rune, overlap)
			copy(tail, current[len(current)-overlap:])
			current = append(current[:0], tail...)
		} else {
			current = current[:0]
		}
	}

	for _, para := range paragraphs {
		runes := []rune(para)

		if len(current) > 0 && len(current)+1+len(runes) > size {
			flush()
		}
		if len(current) > 0 {
			current = append(current, '\n')
		}

		// Paragraphs beyond the remaining space are hard-split.
		for len(current)+len(runes) > size {
			fit := size - len(current)
			current = append(current, runes[:fit]...)
			runes = runes[fit:]
			flush()
		}
		current = append(current, runes...)
	}
	flush()

	for i := range chunks {
		chunks[i].ID = chunkID(documentID, chunks[i].Position, chunks[i].Content)
	}
	return chunks
}

// chunkID is a stable content hash: re-ingesting unchanged text yields the
// same IDs, so upserts replace rather than duplicate (R3.4).
func chunkID(documentID string, position int, content string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%s", documentID, position, content)))
	return documentID + "-" + hex.EncodeToString(h[:8])
}

// splitParagraphs normalizes line endings and splits on blank lines,
// dropping empty entries.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
