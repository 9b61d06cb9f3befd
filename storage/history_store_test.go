package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "hgchat", "hgchat.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestHistoryStore_LoadEmpty(t *testing.T) {
	store := NewHistoryStore(newTestDB(t), nil)

	messages, err := store.Load("7")
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestHistoryStore_AppendAndLoad(t *testing.T) {
	store := NewHistoryStore(newTestDB(t), nil)

	want := []ChatMessage{
		{Role: "user", Content: "¿Qué propiedades hay?", Timestamp: 1},
		{Role: "assistant", Content: "3 propiedades disponibles", Timestamp: 2},
		{Role: "user", Content: "Quiero comprar tokens", Timestamp: 2},
	}
	for _, msg := range want {
		require.NoError(t, store.Append("7", msg))

		// read-your-writes after every append
		got, err := store.Load("7")
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, msg, got[len(got)-1])
	}

	got, err := store.Load("7")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHistoryStore_UserIsolation(t *testing.T) {
	store := NewHistoryStore(newTestDB(t), nil)

	require.NoError(t, store.Append("A", ChatMessage{Role: "user", Content: "secret of A", Timestamp: 1}))
	require.NoError(t, store.Append("B", ChatMessage{Role: "user", Content: "hello from B", Timestamp: 1}))

	a, err := store.Load("A")
	require.NoError(t, err)
	b, err := store.Load("B")
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "secret of A", a[0].Content)
	assert.Equal(t, "hello from B", b[0].Content)

	require.NoError(t, store.Clear("A"))
	a, err = store.Load("A")
	require.NoError(t, err)
	assert.Empty(t, a)

	b, err = store.Load("B")
	require.NoError(t, err)
	assert.Len(t, b, 1, "clearing A must not touch B")
}

func TestHistoryStore_CorruptRecordIsDiscarded(t *testing.T) {
	db := newTestDB(t)
	store := NewHistoryStore(db, nil)
	require.NoError(t, NewLocalState(db).Set(HistoryKey("7"), "{not json"))

	messages, err := store.Load("7")
	require.NoError(t, err)
	assert.Empty(t, messages)

	// appending over a corrupt record starts a fresh conversation
	msg := ChatMessage{Role: "user", Content: "hola", Timestamp: 10}
	require.NoError(t, store.Append("7", msg))

	messages, err = store.Load("7")
	require.NoError(t, err)
	assert.Equal(t, []ChatMessage{msg}, messages)
}

func TestHistoryStore_MaxMessages(t *testing.T) {
	store := NewHistoryStore(newTestDB(t), &HistoryConfig{MaxMessages: 2})

	for i, content := range []string{"one", "two", "three"} {
		require.NoError(t, store.Append("7", ChatMessage{Role: "user", Content: content, Timestamp: int64(i)}))
	}

	messages, err := store.Load("7")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "two", messages[0].Content)
	assert.Equal(t, "three", messages[1].Content)
}

func TestHistoryStore_ClearMissingUser(t *testing.T) {
	store := NewHistoryStore(newTestDB(t), nil)
	assert.NoError(t, store.Clear("nobody"))
}
