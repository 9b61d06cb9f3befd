package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/housegur/hgchat/storage"
	gokeyring "github.com/zalando/go-keyring"
)

const (
	keyringService    = "dev.housegur.hgchat"
	keyringSessionKey = "session"
)

// keyringSessionBackend keeps the session record in the OS keyring
type keyringSessionBackend struct{}

// LoadSession retrieves the session record from the OS keyring
func (keyringSessionBackend) LoadSession() (*storage.SessionRecord, error) {
	raw, err := gokeyring.Get(keyringService, keyringSessionKey)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return nil, nil // No session is not an error
		}
		return nil, fmt.Errorf("failed to retrieve session from keyring: %w", err)
	}

	record, err := storage.ParseSessionRecord(raw)
	if err != nil {
		slog.Warn("ignoring unreadable session in keyring", "error", err)
		return nil, nil
	}
	return record, nil
}

// SaveSession stores the session record in the OS keyring
func (keyringSessionBackend) SaveSession(record storage.SessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := gokeyring.Set(keyringService, keyringSessionKey, string(data)); err != nil {
		return fmt.Errorf("failed to store session in keyring: %w", err)
	}
	return nil
}

// ClearSession removes the session record from the OS keyring on logout
func (keyringSessionBackend) ClearSession() error {
	err := gokeyring.Delete(keyringService, keyringSessionKey)
	if err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
		return fmt.Errorf("failed to delete session from keyring: %w", err)
	}
	return nil
}
