package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// exportedMsg reports the outcome of an :export
type exportedMsg struct {
	path string
	err  error
}

// exportConversation writes the conversation as markdown to a temporary file
// and returns its path
func exportConversation(sess *Session, messages []Message, now time.Time) (string, error) {
	if sess == nil {
		return "", fmt.Errorf("no session to export")
	}

	filename := fmt.Sprintf("hgchat-%s-%s.md", sess.UserID, now.Format("20060102-150405"))
	path := filepath.Join(os.TempDir(), filename)

	if err := os.WriteFile(path, []byte(formatConversation(sess, messages, now)), 0600); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// formatConversation renders messages as a markdown document. The
// placeholder is left out.
func formatConversation(sess *Session, messages []Message, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Conversación con el asistente de Housegur\n\n")
	fmt.Fprintf(&b, "**Usuario:** %s | **Exportado:** %s | **Mensajes:** %d\n\n",
		greetingName(sess), now.Format("2006-01-02 15:04"), countSettled(messages))
	b.WriteString("---\n")

	for _, msg := range messages {
		if msg.Transient() {
			continue
		}
		author := "Asistente"
		if msg.Role == RoleUser {
			author = "Tú"
		}
		when := time.UnixMilli(msg.Timestamp).Format("15:04")
		fmt.Fprintf(&b, "\n**%s** · %s\n\n%s\n", author, when, strings.TrimSpace(msg.Content))
	}
	return b.String()
}

func countSettled(messages []Message) int {
	n := 0
	for _, msg := range messages {
		if !msg.Transient() {
			n++
		}
	}
	return n
}

// openInEditor creates a command to open the specified file in the user's preferred editor
func openInEditor(path string) *exec.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi" // Fallback to vi
	}
	return exec.Command(editor, path)
}

// exportAndEdit exports the conversation and hands the terminal to the editor
func exportAndEdit(sess *Session, messages []Message) tea.Cmd {
	path, err := exportConversation(sess, messages, time.Now())
	if err != nil {
		return func() tea.Msg { return exportedMsg{err: err} }
	}
	return tea.ExecProcess(openInEditor(path), func(err error) tea.Msg {
		return exportedMsg{path: path, err: err}
	})
}
