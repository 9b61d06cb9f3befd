package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportFixture() []Message {
	return []Message{
		{Role: RoleUser, Content: "¿Qué propiedades hay?", Timestamp: 1700000000000},
		{Role: RoleAssistant, Content: "Hay 3 propiedades disponibles\n", Timestamp: 1700000001000},
		{Role: RoleUser, Content: "quiero comprar", Timestamp: 1700000002000},
		{Role: RoleAssistant, Content: placeholderText, Timestamp: 1700000002000, transient: true},
	}
}

func TestFormatConversation(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)
	sess := &Session{UserID: "7", DisplayName: "Ana"}

	doc := formatConversation(sess, exportFixture(), now)

	assert.True(t, strings.HasPrefix(doc, "# Conversación con el asistente de Housegur\n"))
	assert.Contains(t, doc, "**Usuario:** Ana | **Exportado:** 2025-03-14 09:30 | **Mensajes:** 3")
	assert.Contains(t, doc, "**Tú** · "+time.UnixMilli(1700000000000).Format("15:04")+"\n\n¿Qué propiedades hay?\n")
	assert.Contains(t, doc, "**Asistente** · ")
	assert.Contains(t, doc, "Hay 3 propiedades disponibles\n")
	assert.NotContains(t, doc, placeholderText)
	assert.Equal(t, 3, strings.Count(doc, "**Tú**")+strings.Count(doc, "**Asistente**"))
}

func TestFormatConversationWithoutName(t *testing.T) {
	doc := formatConversation(&Session{UserID: "42"}, nil, time.Now())
	assert.Contains(t, doc, "**Usuario:** #42")
	assert.Contains(t, doc, "**Mensajes:** 0")
}

func TestExportConversation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)
	now := time.Date(2025, 3, 14, 9, 30, 5, 0, time.Local)

	path, err := exportConversation(&Session{UserID: "7", DisplayName: "Ana"}, exportFixture(), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hgchat-7-20250314-093005.md"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "quiero comprar")

	_, err = exportConversation(nil, exportFixture(), now)
	assert.Error(t, err)
}

func TestOpenInEditor(t *testing.T) {
	t.Setenv("EDITOR", "nano")
	cmd := openInEditor("/tmp/x.md")
	assert.Equal(t, []string{"nano", "/tmp/x.md"}, cmd.Args)

	t.Setenv("EDITOR", "")
	cmd = openInEditor("/tmp/x.md")
	assert.Equal(t, []string{"vi", "/tmp/x.md"}, cmd.Args)
}

func TestExportWithoutSessionReportsError(t *testing.T) {
	cmd := exportAndEdit(nil, nil)
	msg, ok := cmd().(exportedMsg)
	require.True(t, ok)
	assert.Error(t, msg.err)
}
