package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists session memory in SQLite so conversations survive a
// restart. Selected with memory backend "sqlite".
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create sessions directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sessions database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		last_context TEXT NOT NULL DEFAULT '',
		last_question TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize sessions schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// GetOrCreate returns the session's memory, inserting an empty row on first use.
func (s *SQLiteStore) GetOrCreate(sessionID string) (Memory, error) {
	var mem Memory
	err := s.db.QueryRow(
		`SELECT last_context, last_question FROM sessions WHERE id = ?`, sessionID,
	).Scan(&mem.LastContext, &mem.LastQuestion)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec(
			`INSERT INTO sessions (id, last_context, last_question, updated_at) VALUES (?, '', '', ?)
			 ON CONFLICT(id) DO NOTHING`,
			sessionID, time.Now(),
		)
		if err != nil {
			return Memory{}, fmt.Errorf("create session: %w", err)
		}
		return Memory{}, nil
	}
	if err != nil {
		return Memory{}, fmt.Errorf("get session: %w", err)
	}
	return mem, nil
}

// Update upserts the session's memory. Last write wins.
func (s *SQLiteStore) Update(sessionID, contextText, questionText string) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, last_context, last_question, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET last_context = excluded.last_context,
		                               last_question = excluded.last_question,
		                               updated_at = excluded.updated_at`,
		sessionID, contextText, questionText, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Len returns the number of stored sessions, or 0 if the count fails.
func (s *SQLiteStore) Len() int {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
