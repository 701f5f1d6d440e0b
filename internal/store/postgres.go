package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Alias1177/TradeAgent/models"
)

// Postgres is a snapshot store backed by PostgreSQL, for deployments where
// several agents share one database server.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects with the given DSN and creates the snapshot table if
// it does not exist
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS portfolio_snapshots (
			key TEXT PRIMARY KEY,
			snapshot JSONB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, err
	}

	return &Postgres{db: db}, nil
}

// Load returns the snapshot stored under key, or (nil, nil) if absent
func (s *Postgres) Load(key string) (*models.Portfolio, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT snapshot FROM portfolio_snapshots WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var p models.Portfolio
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &p, nil
}

// Save stores the snapshot under key, replacing any previous one
func (s *Postgres) Save(key string, p *models.Portfolio) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO portfolio_snapshots (key, snapshot, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at
	`, key, raw, time.Now())
	return err
}

// Close closes the underlying database
func (s *Postgres) Close() error {
	return s.db.Close()
}
