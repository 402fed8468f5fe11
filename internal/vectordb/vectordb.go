// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectordb persists embedded chunks and answers nearest-neighbour
// queries. Two backends implement the store: Postgres with the pgvector
// extension, and a single-file SQLite database for service-free setups.
// Per prd003-storage R1-R4.
package vectordb

import (
	"context"
	"fmt"

	"github.com/mximoph/mximoph/pkg/types"
)

// Stats summarizes collection contents.
type Stats struct {
	Documents int `json:"documents" yaml:"documents"`
	Chunks    int `json:"chunks" yaml:"chunks"`
}

// VectorDB stores embedded chunks and retrieves the most similar ones.
type VectorDB interface {
	// EnsureSchema creates the collection's tables and indexes if they
	// do not exist. Safe to call repeatedly.
	EnsureSchema(ctx context.Context) error

	// Upsert inserts or replaces chunks by ID. Each chunk must carry an
	// embedding of the collection's dimension.
	Upsert(ctx context.Context, chunks []types.Chunk, docTitle string) error

	// Search returns up to limit chunks ranked by cosine similarity to
	// vector. queryText is an optional hint: backends with a text index
	// may use it to narrow candidates, others ignore it.
	Search(ctx context.Context, vector []float32, queryText string, limit int) ([]types.ScoredChunk, error)

	// DeleteDocument removes all chunks belonging to documentID.
	DeleteDocument(ctx context.Context, documentID string) error

	// DropCollection removes the collection entirely.
	DropCollection(ctx context.Context) error

	// Stats reports document and chunk counts.
	Stats(ctx context.Context) (Stats, error)

	// Close releases the underlying connection.
	Close() error
}

// Open constructs the configured backend. dim is the embedding dimension
// the schema is created with.
func Open(ctx context.Context, cfg types.StorageConfig, dim int) (VectorDB, error) {
	switch cfg.Backend {
	case types.BackendPgvector:
		return openPgvector(ctx, cfg, dim)
	case types.BackendSQLite:
		return openSQLite(ctx, cfg, dim)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
