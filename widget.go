package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrBusy is returned by operations that cannot run while a dispatch is in flight
var ErrBusy = errors.New("a message is still being processed")

// sessionSource resolves and forgets the signed-in identity
type sessionSource interface {
	ResolveSession() *Session
	ClearSession() error
}

// Widget is one mounted chat: it owns the session, the in-memory
// conversation, the dispatch state and the pending action. All mutations go
// through its methods; rendering is pushed to the presenter.
type Widget struct {
	sessions  sessionSource
	history   historyStore
	assistant Assistant
	presenter Presenter
	now       func() time.Time

	mu       sync.Mutex
	session  *Session
	messages []Message
	pending  *PendingAction
	state    DispatchState
	closed   bool
	lastTS   int64

	renderMu sync.Mutex
	inflight sync.WaitGroup
}

// NewWidget mounts a widget. Without a session the presenter is told to show
// the logged-out state and every operation is ignored.
func NewWidget(sessions sessionSource, history historyStore, assistant Assistant, presenter Presenter) *Widget {
	w := &Widget{
		sessions:  sessions,
		history:   history,
		assistant: assistant,
		presenter: presenter,
		now:       time.Now,
		messages:  []Message{},
	}

	w.session = sessions.ResolveSession()
	if w.session == nil {
		slog.Info("no session, chat disabled")
		w.presenter.RenderLoggedOut()
		return w
	}

	w.messages = history.Load(w.session.UserID)
	for _, msg := range w.messages {
		if msg.Timestamp > w.lastTS {
			w.lastTS = msg.Timestamp
		}
	}
	slog.Info("chat mounted", "user", w.session.UserID, "messages", len(w.messages))

	w.render()
	return w
}

// Session returns the identity the widget was mounted with, or nil
func (w *Widget) Session() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return nil
	}
	s := *w.session
	return &s
}

// Messages returns a copy of the visible conversation, placeholder included
func (w *Widget) Messages() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Message(nil), w.messages...)
}

// Pending returns the armed action, or nil
func (w *Widget) Pending() *PendingAction {
	w.mu.Lock()
	defer w.mu.Unlock()
	return copyAction(w.pending)
}

// State returns the current dispatch state
func (w *Widget) State() DispatchState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Send dispatches text to the assistant. It returns false, doing nothing,
// when text is blank, a dispatch is in flight, there is no session or the
// widget is closed. The reply arrives asynchronously through the presenter.
func (w *Widget) Send(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	w.mu.Lock()
	if !w.canDispatchLocked() {
		state := w.state
		w.mu.Unlock()
		slog.Debug("send ignored", "state", state.String())
		return false
	}
	req := w.startLocked(text, nil)
	w.mu.Unlock()

	w.render()
	w.dispatch(ctx, req)
	return true
}

// Confirm accepts the armed action by sending a confirmation message. The
// action is cleared right away, whatever the outcome of the request.
// Returns false when nothing is armed or a dispatch is in flight.
func (w *Widget) Confirm(ctx context.Context) bool {
	w.mu.Lock()
	if w.pending == nil || !w.canDispatchLocked() {
		w.mu.Unlock()
		return false
	}
	action := w.pending
	w.pending = nil

	label := action.Description
	if label == "" {
		label = defaultConfirmLabel
	}
	req := w.startLocked(confirmPrefix+label, action)
	w.mu.Unlock()

	slog.Info("action confirmed", "action", action.Description)
	w.render()
	w.dispatch(ctx, req)
	return true
}

// Cancel drops the armed action and records it locally. Returns false when
// nothing is armed.
func (w *Widget) Cancel() bool {
	w.mu.Lock()
	if w.closed || w.pending == nil {
		w.mu.Unlock()
		return false
	}
	slog.Info("action cancelled", "action", w.pending.Description)
	w.pending = nil
	w.appendLocked(RoleAssistant, cancelledText, false)
	w.mu.Unlock()

	w.render()
	return true
}

// ClearHistory forgets the current user's conversation
func (w *Widget) ClearHistory() error {
	w.mu.Lock()
	if w.closed || w.session == nil {
		w.mu.Unlock()
		return nil
	}
	if w.state == StateSending {
		w.mu.Unlock()
		return ErrBusy
	}
	userID := w.session.UserID
	w.messages = []Message{}
	w.pending = nil
	err := w.history.Clear(userID)
	w.mu.Unlock()

	w.render()
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Logout forgets the session and the user's history, then shows the
// logged-out state. The widget is closed afterwards.
func (w *Widget) Logout() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	sess := w.session
	w.closed = true
	w.session = nil
	w.messages = []Message{}
	w.pending = nil
	w.mu.Unlock()

	var errs []error
	if sess != nil {
		if err := w.history.Clear(sess.UserID); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear history: %w", err))
		}
		slog.Info("logged out", "user", sess.UserID)
	}
	if err := w.sessions.ClearSession(); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear session: %w", err))
	}

	w.renderMu.Lock()
	w.presenter.RenderLoggedOut()
	w.renderMu.Unlock()

	return errors.Join(errs...)
}

// Close detaches the widget. Replies that arrive later are discarded.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// Wait blocks until every started dispatch has settled
func (w *Widget) Wait() {
	w.inflight.Wait()
}

func (w *Widget) canDispatchLocked() bool {
	return !w.closed && w.session != nil && w.state == StateIdle
}

// startLocked moves to sending, records the user message and the placeholder,
// and builds the request. confirmed is the action being confirmed, if any.
func (w *Widget) startLocked(text string, confirmed *PendingAction) DispatchRequest {
	w.state = StateSending
	w.inflight.Add(1)
	w.appendLocked(RoleUser, text, false)
	w.appendLocked(RoleAssistant, placeholderText, true)

	// the conversation as sent includes text itself but never the placeholder
	prior := make([]Message, 0, len(w.messages))
	for _, msg := range w.messages {
		if !msg.transient {
			prior = append(prior, msg)
		}
	}

	return DispatchRequest{
		UserID:          w.session.UserID,
		DisplayName:     w.session.DisplayName,
		Message:         text,
		History:         prior,
		IsConfirmation:  confirmed != nil,
		ConfirmedAction: actionPayload(confirmed),
	}
}

func (w *Widget) dispatch(ctx context.Context, req DispatchRequest) {
	go func() {
		defer w.inflight.Done()
		reply, err := w.assistant.Dispatch(ctx, req)
		w.complete(req.IsConfirmation, reply, err)
	}()
}

// complete applies the outcome of a dispatch. The state returns to idle on
// every path.
func (w *Widget) complete(confirming bool, reply *AssistantReply, err error) {
	defer w.render()
	w.mu.Lock()
	defer w.mu.Unlock()
	defer func() { w.state = StateIdle }()

	if w.closed {
		slog.Debug("discarding reply for closed chat", "error", err)
		return
	}

	w.removePlaceholderLocked()

	if err != nil {
		slog.Warn("assistant dispatch failed", "error", err)
		w.pending = nil
		w.appendLocked(RoleAssistant, failureText(err), false)
		return
	}

	w.appendLocked(RoleAssistant, reply.Text, false)
	if reply.Action != nil && !confirming {
		slog.Info("action armed", "action", reply.Action.Description)
		w.pending = reply.Action
	} else {
		w.pending = nil
	}
}

// appendLocked adds a message to the conversation and persists it unless it
// is transient
func (w *Widget) appendLocked(role Role, content string, transient bool) {
	msg := Message{
		Role:      role,
		Content:   content,
		Timestamp: w.tickLocked(),
		transient: transient,
	}
	w.messages = append(w.messages, msg)
	if transient {
		return
	}
	if err := w.history.Append(w.session.UserID, msg); err != nil {
		slog.Warn("failed to persist message", "user", w.session.UserID, "error", err)
	}
}

func (w *Widget) removePlaceholderLocked() {
	kept := w.messages[:0]
	for _, msg := range w.messages {
		if !msg.transient {
			kept = append(kept, msg)
		}
	}
	w.messages = kept
}

// tickLocked returns a millisecond timestamp that never goes backwards
func (w *Widget) tickLocked() int64 {
	ts := w.now().UnixMilli()
	if ts < w.lastTS {
		ts = w.lastTS
	}
	w.lastTS = ts
	return ts
}

// render pushes the latest snapshot to the presenter. Calls are serialized
// so the presenter never sees an older snapshot after a newer one.
func (w *Widget) render() {
	w.renderMu.Lock()
	defer w.renderMu.Unlock()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if w.session == nil {
		w.mu.Unlock()
		w.presenter.RenderLoggedOut()
		return
	}
	messages := append([]Message(nil), w.messages...)
	pending := copyAction(w.pending)
	w.mu.Unlock()

	w.presenter.RenderHistory(messages)
	w.presenter.RenderActionPanel(pending)
}

func failureText(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrNoWebhook):
		return noWebhookText
	case errors.As(err, &statusErr):
		return fmt.Sprintf("❌ Error: HTTP %d", statusErr.Code)
	case errors.Is(err, ErrInvalidReply):
		return invalidReplyText
	default:
		return fmt.Sprintf("❌ Error de red: %v", err)
	}
}

func copyAction(a *PendingAction) *PendingAction {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
