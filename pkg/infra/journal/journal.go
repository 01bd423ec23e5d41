// Package journal keeps a local record of deployment activity in
// SQLite, one row per activation attempt, so operators can see what
// pipelayer did without querying the remote service.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded activation attempt.
type Entry struct {
	ID           int64     `json:"id"`
	PipelineName string    `json:"pipeline"`
	DeploymentID string    `json:"deployment_id"`
	Action       string    `json:"action"`
	Succeeded    bool      `json:"succeeded"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the SQLite-backed journal.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping journal database: %w", err)
	}

	// WAL keeps concurrent readers out of the writers' way.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS activations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pipeline_name TEXT NOT NULL,
		deployment_id TEXT NOT NULL,
		action TEXT NOT NULL,
		succeeded INTEGER NOT NULL,
		error TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activations_pipeline ON activations(pipeline_name);
	`
	_, err := s.db.Exec(query)
	return err
}

// Record appends one entry. The entry's CreatedAt is set when zero.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO activations (pipeline_name, deployment_id, action, succeeded, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.PipelineName, e.DeploymentID, e.Action, e.Succeeded, e.Error, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, pipeline_name, deployment_id, action, succeeded, error, created_at
		FROM activations ORDER BY id DESC LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var succeeded int
		var errText sql.NullString
		var createdAt int64

		if err := rows.Scan(&e.ID, &e.PipelineName, &e.DeploymentID, &e.Action,
			&succeeded, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}

		e.Succeeded = succeeded != 0
		e.Error = errText.String
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
