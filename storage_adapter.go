package main

import (
	"fmt"
	"log/slog"

	"github.com/housegur/hgchat/storage"
)

// historyStore is the per-user conversation log used by the widget
type historyStore interface {
	Load(userID string) []Message
	Append(userID string, msg Message) error
	Clear(userID string) error
}

// ChatHistory adapts the SQLite history store to the widget's message type
type ChatHistory struct {
	store *storage.HistoryStore
}

// NewChatHistory creates a SQLite-backed chat history
func NewChatHistory(db *storage.DB, maxMessages int) (*ChatHistory, error) {
	if db == nil {
		return nil, fmt.Errorf("storage not initialized")
	}
	return &ChatHistory{
		store: storage.NewHistoryStore(db, &storage.HistoryConfig{MaxMessages: maxMessages}),
	}, nil
}

// Load reads the conversation of userID. Read failures yield an empty history.
func (h *ChatHistory) Load(userID string) []Message {
	entries, err := h.store.Load(userID)
	if err != nil {
		slog.Warn("failed to load chat history", "user", userID, "error", err)
		return []Message{}
	}

	messages := make([]Message, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, Message{
			Role:      Role(entry.Role),
			Content:   entry.Content,
			Timestamp: entry.Timestamp,
		})
	}
	return messages
}

// Append persists msg at the end of userID's conversation
func (h *ChatHistory) Append(userID string, msg Message) error {
	if msg.transient {
		return nil
	}
	return h.store.Append(userID, storage.ChatMessage{
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	})
}

// Clear removes the conversation of userID
func (h *ChatHistory) Clear(userID string) error {
	return h.store.Clear(userID)
}
