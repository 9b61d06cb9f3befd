package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB wraps the database connection with additional functionality
type DB struct {
	conn *sql.DB
	path string
}

// InitDB initializes the SQLite database and creates tables if needed
func InitDB(dbPath string) (*DB, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Writes must be on disk before Append returns
	if _, err := conn.Exec("PRAGMA synchronous = FULL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := conn.Exec(
		"INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, unixepoch())", SchemaVersion,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}

	slog.Debug("SQLite database initialized", "path", dbPath)
	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	slog.Debug("closing SQLite database", "path", db.path)
	return db.conn.Close()
}

// Stats returns the number of stored keys per kind
func (db *DB) Stats() (map[string]int64, error) {
	stats := make(map[string]int64)

	var sessions int64
	if err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM local_state WHERE key = ?", SessionKey,
	).Scan(&sessions); err != nil {
		return nil, err
	}
	stats["sessions"] = sessions

	var histories int64
	if err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM local_state WHERE key LIKE ?", historyKeyPrefix+"%",
	).Scan(&histories); err != nil {
		return nil, err
	}
	stats["histories"] = histories

	return stats, nil
}
