package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// SessionStore handles persistence of the signed-in identity
type SessionStore struct {
	state *LocalState
}

// NewSessionStore creates a new session store
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{state: NewLocalState(db)}
}

// LoadSession returns the persisted session record, or nil when there is
// none or it cannot be parsed.
func (s *SessionStore) LoadSession() (*SessionRecord, error) {
	raw, ok, err := s.state.Get(SessionKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	record, err := ParseSessionRecord(raw)
	if err != nil {
		slog.Warn("ignoring unreadable session record", "error", err)
		return nil, nil
	}
	return record, nil
}

// SaveSession persists record as the current session
func (s *SessionStore) SaveSession(record SessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.state.Set(SessionKey, string(data))
}

// ClearSession removes the persisted session
func (s *SessionStore) ClearSession() error {
	return s.state.Delete(SessionKey)
}

// ParseSessionRecord decodes a session record. Both the current
// {"userId","displayName"} shape and the legacy {"usuario_id","nombre"}
// shape are accepted; user ids may be JSON strings or numbers.
func ParseSessionRecord(raw string) (*SessionRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("failed to parse session: not an object")
	}

	userID, err := firstID(fields, "userId", "usuario_id")
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, fmt.Errorf("session has no user id")
	}

	var name string
	for _, field := range []string{"displayName", "nombre"} {
		if v, ok := fields[field]; ok {
			if err := json.Unmarshal(v, &name); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", field, err)
			}
			break
		}
	}

	return &SessionRecord{UserID: userID, DisplayName: name}, nil
}

func firstID(fields map[string]json.RawMessage, names ...string) (string, error) {
	for _, name := range names {
		v, ok := fields[name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return strings.TrimSpace(s), nil
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
				return n.String(), nil
			}
		}
		return "", fmt.Errorf("invalid %s: %s", name, string(v))
	}
	return "", nil
}
