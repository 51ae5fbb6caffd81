package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteTokenStore keeps the resumption token in a local sqlite database.
// The table is a single-slot upsert target: there is never more than one
// row, matching the one-active-identity model.
type SQLiteTokenStore struct {
	db *sql.DB
}

func NewSQLiteTokenStore(dbPath string) (*SQLiteTokenStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping state db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS resumption_token (
		slot INTEGER PRIMARY KEY CHECK (slot = 1),
		token TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteTokenStore{db: db}, nil
}

func (s *SQLiteTokenStore) Load() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT token FROM resumption_token WHERE slot = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query token: %w", err)
	}
	return token, nil
}

func (s *SQLiteTokenStore) Save(token string) error {
	query := `
	INSERT INTO resumption_token (slot, token, updated_at)
	VALUES (1, ?, ?)
	ON CONFLICT (slot) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`

	if _, err := s.db.Exec(query, token, time.Now().Unix()); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (s *SQLiteTokenStore) Close() error {
	return s.db.Close()
}
