// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns text into fixed-dimension vectors via a local
// sentence-embedding inference server.
// Per prd002-embedding R1-R3.
package embed

import (
	"context"
	"fmt"
)

// Embedder produces embedding vectors for batches of text. Implementations
// must return one vector per input, in order, each exactly Dimension()
// long.
type Embedder interface {
	// Embed returns one vector per text in texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the expected length of every returned vector.
	Dimension() int
}

// EmbedOne is a convenience wrapper for single-text callers such as the
// query path.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding server returned %d vectors for 1 input", len(vecs))
	}
	return vecs[0], nil
}

// checkDimensions validates the server response shape: one vector per
// input, each of the expected length (R2.2). A mismatch usually means the
// server is serving a different model than configured.
func checkDimensions(vecs [][]float32, inputs, dim int) error {
	if len(vecs) != inputs {
		return fmt.Errorf("embedding server returned %d vectors for %d inputs", len(vecs), inputs)
	}
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("embedding dimension mismatch for input %d: expected %d, got %d", i, dim, len(v))
		}
	}
	return nil
}
