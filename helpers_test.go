package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/housegur/hgchat/storage"
	"github.com/stretchr/testify/require"
)

// memSessions is an in-memory sessionSource
type memSessions struct {
	mu      sync.Mutex
	session *Session
	cleared int
}

func (s *memSessions) ResolveSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	c := *s.session
	return &c
}

func (s *memSessions) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.cleared++
	return nil
}

// memHistory is an in-memory historyStore
type memHistory struct {
	mu        sync.Mutex
	byUser    map[string][]Message
	appendErr error
}

func newMemHistory() *memHistory {
	return &memHistory{byUser: make(map[string][]Message)}
}

func (h *memHistory) Load(userID string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message{}, h.byUser[userID]...)
}

func (h *memHistory) Append(userID string, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return h.appendErr
	}
	h.byUser[userID] = append(h.byUser[userID], msg)
	return nil
}

func (h *memHistory) Clear(userID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byUser, userID)
	return nil
}

// recordingPresenter keeps every call it receives
type recordingPresenter struct {
	mu        sync.Mutex
	histories [][]Message
	actions   []*PendingAction
	loggedOut int
}

func (p *recordingPresenter) RenderHistory(messages []Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.histories = append(p.histories, messages)
}

func (p *recordingPresenter) RenderActionPanel(action *PendingAction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
}

func (p *recordingPresenter) RenderLoggedOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loggedOut++
}

func (p *recordingPresenter) lastHistory() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.histories) == 0 {
		return nil
	}
	return p.histories[len(p.histories)-1]
}

func (p *recordingPresenter) lastAction() *PendingAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.actions) == 0 {
		return nil
	}
	return p.actions[len(p.actions)-1]
}

func (p *recordingPresenter) loggedOutCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loggedOut
}

// assistantFunc adapts a function to the Assistant interface
type assistantFunc func(ctx context.Context, req DispatchRequest) (*AssistantReply, error)

func (f assistantFunc) Dispatch(ctx context.Context, req DispatchRequest) (*AssistantReply, error) {
	return f(ctx, req)
}

// blockingAssistant holds every dispatch until release is called
type blockingAssistant struct {
	started chan DispatchRequest
	gate    chan struct{}
	reply   *AssistantReply
	err     error
}

func newBlockingAssistant(reply *AssistantReply, err error) *blockingAssistant {
	return &blockingAssistant{
		started: make(chan DispatchRequest, 8),
		gate:    make(chan struct{}),
		reply:   reply,
		err:     err,
	}
}

func (b *blockingAssistant) Dispatch(ctx context.Context, req DispatchRequest) (*AssistantReply, error) {
	b.started <- req
	<-b.gate
	return b.reply, b.err
}

func (b *blockingAssistant) release() {
	close(b.gate)
}

// webhook is a fake assistant endpoint that records the decoded requests
type webhook struct {
	mu       sync.Mutex
	requests []map[string]any
	server   *httptest.Server
}

// newWebhook serves respond for every request
func newWebhook(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) *webhook {
	t.Helper()
	hook := &webhook{}
	hook.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err == nil {
			var body map[string]any
			if json.Unmarshal(data, &body) == nil {
				hook.mu.Lock()
				hook.requests = append(hook.requests, body)
				hook.mu.Unlock()
			}
		}
		respond(w, r)
	}))
	t.Cleanup(hook.server.Close)
	return hook
}

// replyWith answers every request with status and body
func replyWith(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (h *webhook) client() *AssistantClient {
	return NewAssistantClient(h.server.URL, 0)
}

func (h *webhook) requestsSeen() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]map[string]any(nil), h.requests...)
}

// ana is the signed-in user of most scenarios
func ana() *memSessions {
	return &memSessions{session: &Session{UserID: "7", DisplayName: "Ana"}}
}

// newTestDB opens a throwaway SQLite database
func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.InitDB(filepath.Join(t.TempDir(), "hgchat.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var errBoom = errors.New("boom")
