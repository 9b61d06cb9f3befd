package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/housegur/hgchat/storage"
)

// sessionEnvVar holds a JSON session record that overrides the stored one
const sessionEnvVar = "HGCHAT_SESSION"

// Session is the identity of the signed-in user
type Session struct {
	UserID      string
	DisplayName string
}

// sessionBackend persists the session record
type sessionBackend interface {
	LoadSession() (*storage.SessionRecord, error)
	SaveSession(record storage.SessionRecord) error
	ClearSession() error
}

// SessionStore resolves the current identity from persisted state
type SessionStore struct {
	backend sessionBackend
	getenv  func(string) string
}

// NewSessionStore creates a session store over the configured backend.
// backend is "sqlite" (default) or "keyring".
func NewSessionStore(db *storage.DB, backend string) (*SessionStore, error) {
	store := &SessionStore{getenv: os.Getenv}
	switch backend {
	case "", "sqlite":
		if db == nil {
			return nil, fmt.Errorf("storage not initialized")
		}
		store.backend = storage.NewSessionStore(db)
	case "keyring":
		store.backend = keyringSessionBackend{}
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", backend)
	}
	return store, nil
}

// ResolveSession returns the signed-in identity, or nil when there is none.
// Unreadable records count as no session.
func (s *SessionStore) ResolveSession() *Session {
	if s == nil {
		return nil
	}

	if raw := s.getenv(sessionEnvVar); raw != "" {
		record, err := storage.ParseSessionRecord(raw)
		if err != nil {
			slog.Warn("ignoring unreadable session from environment", "var", sessionEnvVar, "error", err)
			return nil
		}
		return sessionFromRecord(record)
	}

	record, err := s.backend.LoadSession()
	if err != nil {
		slog.Warn("failed to read session", "error", err)
		return nil
	}
	if record == nil {
		return nil
	}
	return sessionFromRecord(record)
}

// EnvOverride reports whether the session comes from the environment.
// Clearing the stored record does not sign such a session out.
func (s *SessionStore) EnvOverride() bool {
	return s != nil && s.getenv(sessionEnvVar) != ""
}

// SaveSession persists sess as the current identity
func (s *SessionStore) SaveSession(sess Session) error {
	return s.backend.SaveSession(storage.SessionRecord{
		UserID:      sess.UserID,
		DisplayName: sess.DisplayName,
	})
}

// ClearSession forgets the current identity
func (s *SessionStore) ClearSession() error {
	return s.backend.ClearSession()
}

func sessionFromRecord(record *storage.SessionRecord) *Session {
	return &Session{UserID: record.UserID, DisplayName: record.DisplayName}
}
