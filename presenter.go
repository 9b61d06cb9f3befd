package main

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Presenter displays the widget state. Calls come from any goroutine but
// never concurrently.
type Presenter interface {
	RenderHistory(messages []Message)
	RenderActionPanel(action *PendingAction)
	RenderLoggedOut()
}

// chatSnapshot is the latest state handed to the TUI
type chatSnapshot struct {
	Messages  []Message
	Pending   *PendingAction
	LoggedOut bool
}

// chatUpdatedMsg tells the TUI a new snapshot is available
type chatUpdatedMsg struct{}

// teaPresenter hands snapshots to a bubbletea program. Renders only store
// the snapshot and signal; bursts of renders collapse into one update.
type teaPresenter struct {
	mu     sync.Mutex
	snap   chatSnapshot
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newTeaPresenter() *teaPresenter {
	return &teaPresenter{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (p *teaPresenter) RenderHistory(messages []Message) {
	p.mu.Lock()
	p.snap.Messages = messages
	p.snap.LoggedOut = false
	p.mu.Unlock()
	p.notify()
}

func (p *teaPresenter) RenderActionPanel(action *PendingAction) {
	p.mu.Lock()
	p.snap.Pending = action
	p.mu.Unlock()
	p.notify()
}

func (p *teaPresenter) RenderLoggedOut() {
	p.mu.Lock()
	p.snap = chatSnapshot{LoggedOut: true}
	p.mu.Unlock()
	p.notify()
}

// Snapshot returns the latest rendered state
func (p *teaPresenter) Snapshot() chatSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *teaPresenter) notify() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// Listen waits for the next render. The TUI re-issues it after every update.
func (p *teaPresenter) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-p.signal:
			return chatUpdatedMsg{}
		case <-p.done:
			return nil
		}
	}
}

// Stop releases a pending Listen
func (p *teaPresenter) Stop() {
	p.once.Do(func() { close(p.done) })
}

// consolePresenter prints new assistant messages for non-interactive use
type consolePresenter struct {
	out io.Writer

	seen       int
	primed     bool
	lastAction string
}

func newConsolePresenter(out io.Writer) *consolePresenter {
	return &consolePresenter{out: out}
}

func (p *consolePresenter) RenderHistory(messages []Message) {
	var settled []Message
	for _, msg := range messages {
		if !msg.Transient() {
			settled = append(settled, msg)
		}
	}

	// The first render is the stored conversation, which is not echoed.
	if !p.primed {
		p.primed = true
		p.seen = len(settled)
		return
	}
	if len(settled) < p.seen {
		p.seen = len(settled)
	}
	for _, msg := range settled[p.seen:] {
		if msg.Role == RoleAssistant {
			fmt.Fprintln(p.out, msg.Content)
		}
	}
	p.seen = len(settled)
}

func (p *consolePresenter) RenderActionPanel(action *PendingAction) {
	if action == nil {
		p.lastAction = ""
		return
	}
	if action.Label() == p.lastAction {
		return
	}
	p.lastAction = action.Label()
	fmt.Fprintf(p.out, "⚠️  %s\n", action.Label())
}

func (p *consolePresenter) RenderLoggedOut() {
	fmt.Fprintln(p.out, loggedOutText)
}
