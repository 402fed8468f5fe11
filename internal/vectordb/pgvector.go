// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectordb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/lib/pq"

	"github.com/mximoph/mximoph/internal/log"
	"github.com/mximoph/mximoph/pkg/types"
)

// pgvectorStore is the Postgres backend. One table per collection with a
// vector(dim) column; similarity ordering uses the cosine distance
// operator. Per prd003-storage R1.2, R2, R3.
type pgvectorStore struct {
	db         *sql.DB
	collection string
	dim        int
}

// openPgvector connects to Postgres and pings with bounded retry: the
// pgvector container needs a few seconds after `store up` before it
// accepts connections.
func openPgvector(ctx context.Context, cfg types.StorageConfig, dim int) (*pgvectorStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	logger := log.WithComponent("vectordb")
	err = retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug().Uint("attempt", n+1).Err(err).Msg("postgres not ready, retrying")
		}),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return &pgvectorStore{db: db, collection: cfg.Collection, dim: dim}, nil
}

func (p *pgvectorStore) Close() error {
	return p.db.Close()
}

// table returns the quoted collection table name. Collection names come
// from config, not user queries, but quoting keeps odd names working.
func (p *pgvectorStore) table() string {
	return pq.QuoteIdentifier(p.collection)
}

// schemaStatements returns the DDL run by EnsureSchema, in order.
func (p *pgvectorStore) schemaStatements() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			document_title TEXT,
			content TEXT NOT NULL,
			position INTEGER NOT NULL,
			embedding vector(%d) NOT NULL
		)`, p.table(), p.dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (document_id)`,
			pq.QuoteIdentifier(p.collection+"_document_id_idx"), p.table()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pq.QuoteIdentifier(p.collection+"_embedding_idx"), p.table()),
	}
}

func (p *pgvectorStore) upsertSQL() string {
	return fmt.Sprintf(
		`INSERT INTO %s (id, document_id, document_title, content, position, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6::vector)
		 ON CONFLICT (id) DO UPDATE SET
			document_id=excluded.document_id, document_title=excluded.document_title,
			content=excluded.content, position=excluded.position, embedding=excluded.embedding`,
		p.table())
}

func (p *pgvectorStore) searchSQL() string {
	return fmt.Sprintf(
		`SELECT id, document_id, document_title, content, position,
			1 - (embedding <=> $1::vector) AS score
		 FROM %s
		 ORDER BY embedding <=> $1::vector
		 LIMIT $2`, p.table())
}

func (p *pgvectorStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range p.schemaStatements() {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating pgvector schema: %w", err)
		}
	}
	return nil
}

func (p *pgvectorStore) Upsert(ctx context.Context, chunks []types.Chunk, docTitle string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, p.upsertSQL())
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if len(c.Embedding) != p.dim {
			return fmt.Errorf("chunk %s: embedding dimension %d, collection expects %d", c.ID, len(c.Embedding), p.dim)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.DocumentID, docTitle, c.Content, c.Position, pgVectorLiteral(c.Embedding),
		); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

func (p *pgvectorStore) Search(ctx context.Context, vector []float32, _ string, limit int) ([]types.ScoredChunk, error) {
	if len(vector) != p.dim {
		return nil, fmt.Errorf("query vector dimension %d, collection expects %d", len(vector), p.dim)
	}

	rows, err := p.db.QueryContext(ctx, p.searchSQL(), pgVectorLiteral(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	defer rows.Close()

	var results []types.ScoredChunk
	for rows.Next() {
		var (
			sc    types.ScoredChunk
			title sql.NullString
		)
		if err := rows.Scan(&sc.ID, &sc.DocumentID, &title, &sc.Content, &sc.Position, &sc.Score); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if title.Valid {
			sc.DocumentTitle = title.String
		}
		results = append(results, sc)
	}
	return results, rows.Err()
}

func (p *pgvectorStore) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := p.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, p.table()), documentID)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return nil
}

func (p *pgvectorStore) DropCollection(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, p.table())); err != nil {
		return fmt.Errorf("dropping collection %s: %w", p.collection, err)
	}
	return nil
}

func (p *pgvectorStore) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := p.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT count(*), count(DISTINCT document_id) FROM %s`, p.table()),
	).Scan(&s.Chunks, &s.Documents)
	if err != nil {
		return Stats{}, fmt.Errorf("counting collection rows: %w", err)
	}
	return s, nil
}
