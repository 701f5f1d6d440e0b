package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Alias1177/TradeAgent/models"
)

// SQLite is a snapshot store backed by a local SQLite file, the default
// backend for single-machine paper trading.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS portfolio_snapshots (
			key TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// Load returns the snapshot stored under key, or (nil, nil) if absent
func (s *SQLite) Load(key string) (*models.Portfolio, error) {
	var raw string
	err := s.db.QueryRow(`SELECT snapshot FROM portfolio_snapshots WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var p models.Portfolio
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &p, nil
}

// Save stores the snapshot under key, replacing any previous one
func (s *SQLite) Save(key string, p *models.Portfolio) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO portfolio_snapshots (key, snapshot, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key)
		DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at
	`, key, string(raw), time.Now())
	return err
}

// Close closes the underlying database
func (s *SQLite) Close() error {
	return s.db.Close()
}
