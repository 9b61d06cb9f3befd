package main

import (
	"testing"

	"github.com/housegur/hgchat/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func withEnv(store *SessionStore, env map[string]string) *SessionStore {
	store.getenv = func(key string) string { return env[key] }
	return store
}

func TestSessionStoreSQLite(t *testing.T) {
	store, err := NewSessionStore(newTestDB(t), "sqlite")
	require.NoError(t, err)
	withEnv(store, nil)

	assert.Nil(t, store.ResolveSession())

	require.NoError(t, store.SaveSession(Session{UserID: "7", DisplayName: "Ana"}))
	assert.Equal(t, &Session{UserID: "7", DisplayName: "Ana"}, store.ResolveSession())

	require.NoError(t, store.ClearSession())
	assert.Nil(t, store.ResolveSession())
	assert.NoError(t, store.ClearSession(), "clearing twice is fine")
}

func TestSessionStoreDefaultBackend(t *testing.T) {
	store, err := NewSessionStore(newTestDB(t), "")
	require.NoError(t, err)
	assert.IsType(t, &storage.SessionStore{}, store.backend)
}

func TestSessionStoreCorruptRecord(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, storage.NewLocalState(db).Set(storage.SessionKey, "{not json"))

	store, err := NewSessionStore(db, "sqlite")
	require.NoError(t, err)
	withEnv(store, nil)

	assert.Nil(t, store.ResolveSession())
}

func TestSessionStoreLegacyRecord(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, storage.NewLocalState(db).Set(storage.SessionKey, `{"usuario_id":7,"nombre":"Ana"}`))

	store, err := NewSessionStore(db, "sqlite")
	require.NoError(t, err)
	withEnv(store, nil)

	assert.Equal(t, &Session{UserID: "7", DisplayName: "Ana"}, store.ResolveSession())
}

func TestSessionStoreEnvOverride(t *testing.T) {
	store, err := NewSessionStore(newTestDB(t), "sqlite")
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(Session{UserID: "7", DisplayName: "Ana"}))

	withEnv(store, map[string]string{sessionEnvVar: `{"userId":"42","displayName":"Luis"}`})
	assert.Equal(t, &Session{UserID: "42", DisplayName: "Luis"}, store.ResolveSession())

	withEnv(store, map[string]string{sessionEnvVar: `garbage`})
	assert.Nil(t, store.ResolveSession(), "an unreadable override means no session")
}

func TestSessionStoreClearKeepsEnvOverride(t *testing.T) {
	store, err := NewSessionStore(newTestDB(t), "sqlite")
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(Session{UserID: "7", DisplayName: "Ana"}))

	withEnv(store, nil)
	assert.False(t, store.EnvOverride())

	withEnv(store, map[string]string{sessionEnvVar: `{"userId":"42","displayName":"Luis"}`})
	assert.True(t, store.EnvOverride())
	require.NoError(t, store.ClearSession())
	assert.Equal(t, &Session{UserID: "42", DisplayName: "Luis"}, store.ResolveSession(), "clearing the stored record leaves the override in place")

	var missing *SessionStore
	assert.False(t, missing.EnvOverride())
}

func TestSessionStoreKeyring(t *testing.T) {
	gokeyring.MockInit()

	store, err := NewSessionStore(nil, "keyring")
	require.NoError(t, err)
	withEnv(store, nil)

	assert.Nil(t, store.ResolveSession())

	require.NoError(t, store.SaveSession(Session{UserID: "7", DisplayName: "Ana"}))
	assert.Equal(t, &Session{UserID: "7", DisplayName: "Ana"}, store.ResolveSession())

	require.NoError(t, store.ClearSession())
	assert.Nil(t, store.ResolveSession())
	assert.NoError(t, store.ClearSession())
}

func TestSessionStoreKeyringCorruptRecord(t *testing.T) {
	gokeyring.MockInit()
	require.NoError(t, gokeyring.Set(keyringService, keyringSessionKey, "[]"))

	store, err := NewSessionStore(nil, "keyring")
	require.NoError(t, err)
	withEnv(store, nil)

	assert.Nil(t, store.ResolveSession())
}

func TestSessionStoreInvalidBackend(t *testing.T) {
	_, err := NewSessionStore(nil, "sqlite")
	assert.Error(t, err, "sqlite needs a database")

	_, err = NewSessionStore(newTestDB(t), "cookies")
	assert.Error(t, err)
}

func TestNilSessionStoreResolvesNothing(t *testing.T) {
	var store *SessionStore
	assert.Nil(t, store.ResolveSession())
}
