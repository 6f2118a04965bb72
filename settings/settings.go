// Package settings stores the user's completion settings in SQLite.
//
// The store is read on every reply request and never cached, so a change
// made through the CLI, the HTTP API or MCP applies to the next activation.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/repli/dbopen"
)

// Keys.
const (
	KeyAPIKey             = "api-key"
	KeyModel              = "model"
	KeyCustomInstructions = "custom-instructions"
)

// DefaultModel is used when no model is stored.
const DefaultModel = "gpt-4-turbo-preview"

// Keys lists the accepted keys.
var Keys = []string{KeyAPIKey, KeyModel, KeyCustomInstructions}

// ErrUnknownKey is returned for keys outside Keys.
var ErrUnknownKey = errors.New("settings: unknown key")

const schema = `CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Snapshot is the settings as read for one request.
type Snapshot struct {
	APIKey             string `json:"api_key"`
	Model              string `json:"model"`
	CustomInstructions string `json:"custom_instructions"`
}

// Redacted masks the API key for display.
func (s Snapshot) Redacted() Snapshot {
	s.APIKey = Mask(s.APIKey)
	return s
}

// Mask keeps the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}

// Source provides a fresh Snapshot.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Store is a SQLite-backed settings store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the settings database at path.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(schema))
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an open database, creating the table if needed.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("settings: create table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Valid reports whether key is a known setting.
func Valid(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the stored value and whether it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if !Valid(key) {
		return "", false, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("settings: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores one value. An empty value deletes the key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

// SetMany stores several values atomically. Empty values delete keys.
func (s *Store) SetMany(ctx context.Context, values map[string]string) error {
	for k := range values {
		if !Valid(k) {
			return fmt.Errorf("%w: %q", ErrUnknownKey, k)
		}
	}
	now := time.Now().UnixMilli()
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		for k, v := range values {
			if v == "" {
				if _, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, k); err != nil {
					return err
				}
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				k, v, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("settings: set: %w", err)
	}
	return nil
}

// Snapshot reads every setting, applying DefaultModel.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("settings: snapshot: %w", err)
	}
	defer rows.Close()

	var snap Snapshot
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Snapshot{}, fmt.Errorf("settings: snapshot: %w", err)
		}
		switch k {
		case KeyAPIKey:
			snap.APIKey = v
		case KeyModel:
			snap.Model = v
		case KeyCustomInstructions:
			snap.CustomInstructions = v
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("settings: snapshot: %w", err)
	}
	if snap.Model == "" {
		snap.Model = DefaultModel
	}
	return snap, nil
}
