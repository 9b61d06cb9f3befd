package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// HistoryStore handles per-user chat history persistence.
// Each user's conversation is one JSON array under HistoryKey(userID).
type HistoryStore struct {
	db  *DB
	cfg *HistoryConfig
}

// NewHistoryStore creates a new history store
func NewHistoryStore(db *DB, cfg *HistoryConfig) *HistoryStore {
	return &HistoryStore{
		db:  db,
		cfg: cfg,
	}
}

// Load returns the conversation of userID in append order.
// A missing or unreadable record yields an empty history.
func (h *HistoryStore) Load(userID string) ([]ChatMessage, error) {
	var raw string
	err := h.db.conn.QueryRow("SELECT value FROM local_state WHERE key = ?", HistoryKey(userID)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return decodeHistory(userID, raw), nil
}

// Append adds msg to the end of userID's conversation. The write is
// committed before Append returns.
func (h *HistoryStore) Append(userID string, msg ChatMessage) error {
	tx, err := h.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	key := HistoryKey(userID)
	messages := []ChatMessage{}

	var raw string
	err = tx.QueryRow("SELECT value FROM local_state WHERE key = ?", key).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to read history: %w", err)
	default:
		messages = decodeHistory(userID, raw)
	}

	messages = append(messages, msg)
	if h.cfg != nil && h.cfg.MaxMessages > 0 && len(messages) > h.cfg.MaxMessages {
		messages = messages[len(messages)-h.cfg.MaxMessages:]
	}

	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := setTx(tx, key, string(data)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Debug("history appended", "user", userID, "messages", len(messages))
	return nil
}

// Clear removes the conversation of userID
func (h *HistoryStore) Clear(userID string) error {
	if _, err := h.db.conn.Exec("DELETE FROM local_state WHERE key = ?", HistoryKey(userID)); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func decodeHistory(userID, raw string) []ChatMessage {
	var messages []ChatMessage
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		slog.Warn("discarding unreadable chat history", "user", userID, "error", err)
		return []ChatMessage{}
	}
	if messages == nil {
		return []ChatMessage{}
	}
	return messages
}
