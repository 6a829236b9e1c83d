// Package sqlite persists a proxen session in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"proxen/internal/session"
)

// Store implements session.Store. Save replaces every row in one transaction.
type Store struct {
	db     *sql.DB
	path   string
	mu     sync.RWMutex
	logger *zap.Logger
}

var _ session.Store = (*Store)(nil)

// Open creates or opens the database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writers serialised across goroutines.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profile (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		api_key TEXT NOT NULL,
		user_name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversation (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		completed_today INTEGER NOT NULL DEFAULT 0,
		awaiting_clarification INTEGER NOT NULL DEFAULT 0,
		last_interaction_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS tasks (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS transcript (
		seq INTEGER PRIMARY KEY,
		text TEXT NOT NULL,
		sender TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		is_error INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the stored snapshot, or an empty one on first use.
func (s *Store) Load(ctx context.Context) (session.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap session.Snapshot

	err := s.db.QueryRowContext(ctx, `SELECT api_key, user_name FROM profile WHERE id = 1`).
		Scan(&snap.Profile.APIKey, &snap.Profile.UserName)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, fmt.Errorf("failed to load profile: %w", err)
	}

	var last sql.NullTime
	err = s.db.QueryRowContext(ctx, `
		SELECT completed_today, awaiting_clarification, last_interaction_at
		FROM conversation WHERE id = 1
	`).Scan(&snap.State.CompletedToday, &snap.State.AwaitingClarification, &last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, fmt.Errorf("failed to load conversation: %w", err)
	}
	if last.Valid {
		snap.State.LastInteractionAt = last.Time
	}

	if snap.State.Tasks, err = s.loadTasks(ctx); err != nil {
		return session.Snapshot{}, err
	}
	if snap.State.Transcript, err = s.loadTranscript(ctx); err != nil {
		return session.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) loadTasks(ctx context.Context) ([]session.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, notes, completed, created_at, completed_at
		FROM tasks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []session.Task
	for rows.Next() {
		var (
			t           session.Task
			completedAt sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Notes, &t.Completed, &t.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if completedAt.Valid {
			at := completedAt.Time
			t.CompletedAt = &at
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) loadTranscript(ctx context.Context) ([]session.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text, sender, timestamp, is_error
		FROM transcript ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	defer rows.Close()

	var entries []session.Entry
	for rows.Next() {
		var (
			e      session.Entry
			sender string
		)
		if err := rows.Scan(&e.Text, &sender, &e.Timestamp, &e.IsError); err != nil {
			return nil, fmt.Errorf("failed to scan transcript entry: %w", err)
		}
		e.Sender = session.Sender(sender)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Save replaces the stored snapshot.
func (s *Store) Save(ctx context.Context, snap session.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, snap); err != nil {
		s.logger.Warn("failed to save session", zap.String("path", s.path), zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) save(ctx context.Context, snap session.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profile (id, api_key, user_name) VALUES (1, ?, ?)`,
		snap.Profile.APIKey, snap.Profile.UserName); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	st := snap.State
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversation (id, completed_today, awaiting_clarification, last_interaction_at)
		VALUES (1, ?, ?, ?)
	`, st.CompletedToday, st.AwaitingClarification, nullTime(st.LastInteractionAt)); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	for i, t := range st.Tasks {
		var completedAt any
		if t.CompletedAt != nil {
			completedAt = *t.CompletedAt
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (position, id, title, notes, completed, created_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, i, t.ID, t.Title, t.Notes, t.Completed, t.CreatedAt, completedAt); err != nil {
			return fmt.Errorf("failed to save task %q: %w", t.Title, err)
		}
	}

	for i, e := range st.Transcript {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transcript (seq, text, sender, timestamp, is_error)
			VALUES (?, ?, ?, ?, ?)
		`, i, e.Text, string(e.Sender), e.Timestamp, e.IsError); err != nil {
			return fmt.Errorf("failed to save transcript entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Reset removes every stored row.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func clearTables(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"profile", "conversation", "tasks", "transcript"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
