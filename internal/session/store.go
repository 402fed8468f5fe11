// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists assistant runs: per-user conversations that
// survive process restarts and resume by default.
// Per prd004-sessions R1-R3.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mximoph/mximoph/pkg/types"
)

// timeFormat is fixed-width so lexicographic ordering on the TEXT
// column matches chronological ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Store manages run records in the configured database. Both backends
// share the same SQL; queries are written with ? placeholders and rebound
// for Postgres.
type Store struct {
	db       *sql.DB
	table    string
	postgres bool
}

// Open connects to the backend named in cfg and creates the runs table if
// needed. The session store shares the vector database's DSN or file.
func Open(ctx context.Context, cfg types.StorageConfig) (*Store, error) {
	var (
		db  *sql.DB
		err error
		pg  bool
	)

	switch cfg.Backend {
	case types.BackendPgvector:
		db, err = sql.Open("postgres", cfg.DSN)
		pg = true
	case types.BackendSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, fmt.Errorf("creating database directory: %w", mkErr)
			}
		}
		db, err = sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}

	s := &Store{db: db, table: cfg.SessionTable, postgres: pg}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind converts ? placeholders to $1..$n for Postgres.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			run_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			messages TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (user_id, created_at)`,
			s.table+"_user_idx", s.table),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating session schema: %w", err)
		}
	}
	return nil
}

// Create starts a new run for userID.
func (s *Store) Create(ctx context.Context, userID string) (*types.Run, error) {
	now := time.Now().UTC()
	run := &types.Run{
		ID:        uuid.NewString(),
		UserID:    userID,
		Messages:  []types.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, s.rebind(fmt.Sprintf(
		`INSERT INTO %q (run_id, user_id, messages, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`, s.table)),
		run.ID, run.UserID, "[]",
		now.Format(timeFormat), now.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	return run, nil
}

// Get loads a run by ID.
func (s *Store) Get(ctx context.Context, runID string) (*types.Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(fmt.Sprintf(
		`SELECT run_id, user_id, messages, created_at, updated_at FROM %q WHERE run_id = ?`,
		s.table)), runID)
	return scanRun(row)
}

// Append adds messages to a run and bumps its updated_at.
func (s *Store) Append(ctx context.Context, runID string, msgs ...types.Message) error {
	run, err := s.Get(ctx, runID)
	if err != nil {
		return err
	}

	run.Messages = append(run.Messages, msgs...)
	data, err := json.Marshal(run.Messages)
	if err != nil {
		return fmt.Errorf("marshaling messages: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)
	res, err := s.db.ExecContext(ctx, s.rebind(fmt.Sprintf(
		`UPDATE %q SET messages = ?, updated_at = ? WHERE run_id = ?`, s.table)),
		string(data), now, runID)
	if err != nil {
		return fmt.Errorf("appending to run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// ListRunIDs returns the user's run IDs, newest first.
func (s *Store) ListRunIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(fmt.Sprintf(
		`SELECT run_id FROM %q WHERE user_id = ? ORDER BY created_at DESC`, s.table)),
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Resume returns the user's most recent run, or nil when they have none.
func (s *Store) Resume(ctx context.Context, userID string) (*types.Run, error) {
	ids, err := s.ListRunIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Get(ctx, ids[0])
}

// Delete removes a run.
func (s *Store) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(fmt.Sprintf(
		`DELETE FROM %q WHERE run_id = ?`, s.table)), runID)
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

func scanRun(row *sql.Row) (*types.Run, error) {
	var (
		run                  types.Run
		messagesJSON         string
		createdAt, updatedAt string
	)
	err := row.Scan(&run.ID, &run.UserID, &messagesJSON, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found")
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	if err := json.Unmarshal([]byte(messagesJSON), &run.Messages); err != nil {
		return nil, fmt.Errorf("parsing run messages: %w", err)
	}
	if t, err := time.Parse(timeFormat, createdAt); err == nil {
		run.CreatedAt = t
	}
	if t, err := time.Parse(timeFormat, updatedAt); err == nil {
		run.UpdatedAt = t
	}
	return &run, nil
}
