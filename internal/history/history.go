// Package history persists build outcomes and state transitions in SQLite so
// `docsite history` can list past builds.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"

	_ "modernc.org/sqlite"
)

// Issue is a persisted build issue.
type Issue struct {
	Stage   string `json:"stage"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Entry is the outcome of one locale build.
type Entry struct {
	BuildID     string        `json:"buildId"`
	Locale      string        `json:"locale"`
	Status      string        `json:"status"`
	FailedStage string        `json:"failedStage,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"durationNs"`
	ConfigHash  string        `json:"configHash,omitempty"`
	ContentHash string        `json:"contentHash,omitempty"`
	OutputDir   string        `json:"outputDir,omitempty"`
	Routes      int           `json:"routes"`
	Warnings    int           `json:"warnings"`
	Issues      []Issue       `json:"issues,omitempty"`
}

// Transition is one state machine step of a locale build.
type Transition struct {
	BuildID string
	Locale  string
	From    string
	To      string
	At      time.Time
}

// Store records build history.
type Store interface {
	Record(ctx context.Context, e Entry) error
	RecordTransition(ctx context.Context, t Transition) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Get(ctx context.Context, buildID string) ([]Entry, error)
	Transitions(ctx context.Context, buildID string) ([]Transition, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates when needed) the history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storeError(err, "open history database").WithPath(dbPath).Build()
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, storeError(err, "initialize history schema").WithPath(dbPath).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		build_id TEXT NOT NULL,
		locale TEXT NOT NULL,
		status TEXT NOT NULL,
		failed_stage TEXT,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		config_hash TEXT,
		content_hash TEXT,
		output_dir TEXT,
		routes INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		issues TEXT,
		PRIMARY KEY (build_id, locale)
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	CREATE TABLE IF NOT EXISTS transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		locale TEXT NOT NULL,
		from_state TEXT NOT NULL,
		to_state TEXT NOT NULL,
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transitions_build_id ON transitions(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts or replaces the entry for (BuildID, Locale).
func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var issuesJSON []byte
	if len(e.Issues) > 0 {
		var err error
		issuesJSON, err = json.Marshal(e.Issues)
		if err != nil {
			return storeError(err, "marshal issues").WithContext("build_id", e.BuildID).Build()
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO builds
		(build_id, locale, status, failed_stage, started, duration_ms, config_hash, content_hash, output_dir, routes, warnings, issues)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.BuildID, e.Locale, e.Status, e.FailedStage, e.StartedAt.UnixMilli(), e.Duration.Milliseconds(),
		e.ConfigHash, e.ContentHash, e.OutputDir, e.Routes, e.Warnings, string(issuesJSON),
	)
	if err != nil {
		return storeError(err, "insert build").WithContext("build_id", e.BuildID).Build()
	}
	return nil
}

// RecordTransition appends a state transition.
func (s *SQLiteStore) RecordTransition(ctx context.Context, t Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transitions (build_id, locale, from_state, to_state, at) VALUES (?, ?, ?, ?, ?)",
		t.BuildID, t.Locale, t.From, t.To, t.At.UnixMilli(),
	)
	if err != nil {
		return storeError(err, "insert transition").WithContext("build_id", t.BuildID).Build()
	}
	return nil
}

const selectBuilds = `SELECT build_id, locale, status, failed_stage, started, duration_ms,
	config_hash, content_hash, output_dir, routes, warnings, issues FROM builds`

// Recent returns the most recent entries, newest first. A limit <= 0 returns all.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectBuilds+" ORDER BY started DESC, build_id, locale LIMIT ?", limit)
	if err != nil {
		return nil, storeError(err, "query builds").Build()
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Get returns every locale entry of a build. A build that was never recorded
// yields a not-found error.
func (s *SQLiteStore) Get(ctx context.Context, buildID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectBuilds+" WHERE build_id = ? ORDER BY locale", buildID)
	if err != nil {
		return nil, storeError(err, "query build").WithContext("build_id", buildID).Build()
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.NotFoundError("build not found").WithContext("build_id", buildID).Build()
	}
	return entries, nil
}

// Transitions returns the recorded transitions of a build in insertion order.
func (s *SQLiteStore) Transitions(ctx context.Context, buildID string) ([]Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT build_id, locale, from_state, to_state, at FROM transitions WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, storeError(err, "query transitions").WithContext("build_id", buildID).Build()
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var at int64
		if err := rows.Scan(&t.BuildID, &t.Locale, &t.From, &t.To, &at); err != nil {
			return nil, storeError(err, "scan transition").Build()
		}
		t.At = time.UnixMilli(at).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "iterate transitions").Build()
	}
	return out, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var failedStage, configHash, contentHash, outputDir, issuesJSON sql.NullString
		var started, durationMS int64

		err := rows.Scan(&e.BuildID, &e.Locale, &e.Status, &failedStage, &started, &durationMS,
			&configHash, &contentHash, &outputDir, &e.Routes, &e.Warnings, &issuesJSON)
		if err != nil {
			return nil, storeError(err, "scan build").Build()
		}

		e.FailedStage = failedStage.String
		e.ConfigHash = configHash.String
		e.ContentHash = contentHash.String
		e.OutputDir = outputDir.String
		e.StartedAt = time.UnixMilli(started).UTC()
		e.Duration = time.Duration(durationMS) * time.Millisecond

		if issuesJSON.String != "" {
			if err := json.Unmarshal([]byte(issuesJSON.String), &e.Issues); err != nil {
				return nil, storeError(err, "unmarshal issues").WithContext("build_id", e.BuildID).Build()
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "iterate builds").Build()
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func storeError(err error, message string) *errors.ErrorBuilder {
	return errors.WrapError(err, errors.CategoryStore, message)
}
