package storage

// SchemaVersion is recorded in schema_version when the database is created
const SchemaVersion = 1

// Keys used in the local_state table. They mirror the keys the web widget
// keeps in browser local storage so records can be moved between the two.
const (
	SessionKey       = "housegur_session"
	historyKeyPrefix = "housegur.chat.history."
)

// HistoryKey returns the local_state key holding the chat history of a user
func HistoryKey(userID string) string {
	return historyKeyPrefix + userID
}

// HistoryConfig holds persistent chat history configuration
type HistoryConfig struct {
	MaxMessages int // 0 keeps everything
}

// ChatMessage is the persisted form of a chat message
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// SessionRecord is the persisted identity of the signed-in user
type SessionRecord struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Schema is the SQL DDL for creating all tables
const Schema = `
-- Opaque key/value entries (session record, per-user chat history)
CREATE TABLE IF NOT EXISTS local_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`
