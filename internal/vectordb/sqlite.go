// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectordb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mximoph/mximoph/internal/log"
	"github.com/mximoph/mximoph/pkg/types"
)

// sqliteStore is the service-free backend. Embeddings live in a BLOB
// column and similarity is computed in process; an FTS5 index over chunk
// content, kept current by triggers, narrows the candidate set for
// queries that carry text. Per prd003-storage R1.3, R4.1-R4.3.
type sqliteStore struct {
	db         *sql.DB
	collection string
	dim        int
}

// ftsCandidateLimit caps how many FTS matches are scored. Beyond this the
// prefilter stops paying for itself.
const ftsCandidateLimit = 256

func openSQLite(ctx context.Context, cfg types.StorageConfig, dim int) (*sqliteStore, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &sqliteStore{db: db, collection: cfg.Collection, dim: dim}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) table() string {
	return `"` + s.collection + `"`
}

func (s *sqliteStore) ftsTable() string {
	return `"` + s.collection + `_fts"`
}

// EnsureSchema creates the chunks table and the FTS5 index. FTS5 is only
// compiled into go-sqlite3 under the sqlite_fts5 build tag (the mage
// targets set it); without it the store still works, minus the text
// prefilter.
func (s *sqliteStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL,
			document_title TEXT,
			content TEXT NOT NULL,
			position INTEGER NOT NULL,
			embedding BLOB NOT NULL
		)`, s.table()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "%s_document_id_idx" ON %s (document_id)`,
			s.collection, s.table()),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, s.collection+"_fts",
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE VIRTUAL TABLE %s USING fts5(content, content=%s, content_rowid=rowid)`,
		s.ftsTable(), `'`+s.collection+`'`)); err != nil {
		if strings.Contains(err.Error(), "no such module: fts5") {
			logger := log.WithComponent("vectordb")
			logger.Warn().Msg("sqlite built without fts5, text prefilter disabled")
			return nil
		}
		return fmt.Errorf("creating FTS infrastructure: %w", err)
	}

	ftsStatements := []string{
		fmt.Sprintf(`CREATE TRIGGER "%[1]s_ai" AFTER INSERT ON %[2]s BEGIN
			INSERT INTO %[3]s(rowid, content) VALUES (new.rowid, new.content);
		END`, s.collection, s.table(), s.ftsTable()),
		fmt.Sprintf(`CREATE TRIGGER "%[1]s_ad" AFTER DELETE ON %[2]s BEGIN
			INSERT INTO %[3]s(%[3]s, rowid, content) VALUES('delete', old.rowid, old.content);
		END`, s.collection, s.table(), s.ftsTable()),
		fmt.Sprintf(`CREATE TRIGGER "%[1]s_au" AFTER UPDATE ON %[2]s BEGIN
			INSERT INTO %[3]s(%[3]s, rowid, content) VALUES('delete', old.rowid, old.content);
			INSERT INTO %[3]s(rowid, content) VALUES (new.rowid, new.content);
		END`, s.collection, s.table(), s.ftsTable()),
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

func (s *sqliteStore) Upsert(ctx context.Context, chunks []types.Chunk, docTitle string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// DELETE before INSERT rather than INSERT OR REPLACE so the FTS
	// delete trigger sees the old row.
	del, err := tx.PrepareContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table()))
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer del.Close()

	ins, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, document_id, document_title, content, position, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`, s.table()))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer ins.Close()

	for _, c := range chunks {
		if len(c.Embedding) != s.dim {
			return fmt.Errorf("chunk %s: embedding dimension %d, collection expects %d", c.ID, len(c.Embedding), s.dim)
		}
		if _, err := del.ExecContext(ctx, c.ID); err != nil {
			return fmt.Errorf("replacing chunk %s: %w", c.ID, err)
		}
		if _, err := ins.ExecContext(ctx,
			c.ID, c.DocumentID, docTitle, c.Content, c.Position, encodeVector(c.Embedding),
		); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

func (s *sqliteStore) Search(ctx context.Context, vector []float32, queryText string, limit int) ([]types.ScoredChunk, error) {
	if len(vector) != s.dim {
		return nil, fmt.Errorf("query vector dimension %d, collection expects %d", len(vector), s.dim)
	}

	candidates, err := s.loadCandidates(ctx, queryText)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		candidates[i].Score = cosineSimilarity(vector, candidates[i].Embedding)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	// Embeddings are working state for ranking, not part of the result.
	for i := range candidates {
		candidates[i].Embedding = nil
	}
	return candidates, nil
}

// loadCandidates reads the chunks to rank. When queryText matches FTS
// rows, only those are scored; an empty or unmatched query falls back to
// a full scan.
func (s *sqliteStore) loadCandidates(ctx context.Context, queryText string) ([]types.ScoredChunk, error) {
	if queryText != "" {
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
			`SELECT c.id, c.document_id, c.document_title, c.content, c.position, c.embedding
			 FROM %s f
			 JOIN %s c ON c.rowid = f.rowid
			 WHERE %s MATCH ?
			 LIMIT ?`, s.ftsTable(), s.table(), s.ftsTable()),
			ftsQuery(queryText), ftsCandidateLimit)
		if err == nil {
			candidates, scanErr := scanCandidates(rows)
			if scanErr != nil {
				return nil, scanErr
			}
			if len(candidates) > 0 {
				return candidates, nil
			}
		}
		// Malformed MATCH expressions and empty matches both fall through
		// to the full scan.
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, document_id, document_title, content, position, embedding FROM %s`, s.table()))
	if err != nil {
		return nil, fmt.Errorf("scanning collection: %w", err)
	}
	return scanCandidates(rows)
}

// ftsQuery turns free text into an FTS5 OR-query of quoted terms, so
// user punctuation cannot break the MATCH expression.
func ftsQuery(text string) string {
	fields := strings.Fields(text)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " OR ")
}

func scanCandidates(rows *sql.Rows) ([]types.ScoredChunk, error) {
	defer rows.Close()

	var out []types.ScoredChunk
	for rows.Next() {
		var (
			sc    types.ScoredChunk
			title sql.NullString
			blob  []byte
		)
		if err := rows.Scan(&sc.ID, &sc.DocumentID, &title, &sc.Content, &sc.Position, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", sc.ID, err)
		}
		sc.Embedding = vec
		if title.Valid {
			sc.DocumentTitle = title.String
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *sqliteStore) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE document_id = ?`, s.table()), documentID)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return nil
}

func (s *sqliteStore) DropCollection(ctx context.Context) error {
	for _, stmt := range []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.ftsTable()),
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.table()),
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("dropping collection %s: %w", s.collection, err)
		}
	}
	return nil
}

func (s *sqliteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT count(*), count(DISTINCT document_id) FROM %s`, s.table()),
	).Scan(&st.Chunks, &st.Documents)
	if err != nil {
		return Stats{}, fmt.Errorf("counting collection rows: %w", err)
	}
	return st, nil
}
