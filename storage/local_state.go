package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LocalState is a key/value view over the local_state table
type LocalState struct {
	db *DB
}

// NewLocalState creates a key/value view over db
func NewLocalState(db *DB) *LocalState {
	return &LocalState{db: db}
}

// Get returns the raw value stored under key. ok is false when the key is absent.
func (s *LocalState) Get(key string) (value string, ok bool, err error) {
	err = s.db.conn.QueryRow("SELECT value FROM local_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (s *LocalState) Set(key, value string) error {
	return setTx(s.db.conn, key, value)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *LocalState) Delete(key string) error {
	if _, err := s.db.conn.Exec("DELETE FROM local_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setTx(e execer, key, value string) error {
	_, err := e.Exec(`
		INSERT INTO local_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
