package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Toast represents a single toast notification
type Toast struct {
	Message string
	Type    string // info, success, warning, error
	Created time.Time
	Timeout time.Duration
}

// CommandLine messages for TUI coordination
type (
	commandReadyMsg     struct{ command string }
	commandCancelledMsg struct{}
)

// CommandLineMode represents the state of the command line
type CommandLineMode int

const (
	CommandLineIdle CommandLineMode = iota
	CommandLineCommand
)

// CommandLineComponent manages the bottom line.
// Handles both : commands and toast notifications
type CommandLineComponent struct {
	mode      CommandLineMode
	toasts    []Toast
	command   []rune
	cursorPos int
	width     int
	style     lipgloss.Style
	now       func() time.Time

	// History support
	history        []string
	historyCursor  int
	historySaved   bool
	historyPending string
}

// NewCommandLineComponent creates a new command line component
func NewCommandLineComponent() *CommandLineComponent {
	return &CommandLineComponent{
		mode: CommandLineIdle,
		now:  time.Now,
		style: lipgloss.NewStyle().
			Background(globalTheme.BrandDark).
			Foreground(globalTheme.TextColor).
			Padding(0, 1),
	}
}

// AddToast adds a new toast notification
func (cl *CommandLineComponent) AddToast(message, toastType string, timeout time.Duration) {
	cl.toasts = append(cl.toasts, Toast{
		Message: message,
		Type:    toastType,
		Created: cl.now(),
		Timeout: timeout,
	})
}

// ClearToasts removes all existing toast notifications
func (cl *CommandLineComponent) ClearToasts() {
	cl.toasts = nil
}

// EnterCommandMode enters command mode with optional initial text
func (cl *CommandLineComponent) EnterCommandMode(initialText string) {
	cl.mode = CommandLineCommand
	cl.command = []rune(initialText)
	cl.cursorPos = len(cl.command)
}

// ExitCommandMode exits command mode and returns to idle
func (cl *CommandLineComponent) ExitCommandMode() {
	cl.mode = CommandLineIdle
	cl.command = nil
	cl.cursorPos = 0
	cl.historySaved = false
	cl.historyPending = ""
	cl.historyCursor = len(cl.history)
}

// IsInCommandMode returns true if in command mode
func (cl *CommandLineComponent) IsInCommandMode() bool {
	return cl.mode == CommandLineCommand
}

// GetCommand returns the current command
func (cl *CommandLineComponent) GetCommand() string {
	return string(cl.command)
}

func (cl *CommandLineComponent) insertRune(r rune) {
	cl.command = append(cl.command[:cl.cursorPos], append([]rune{r}, cl.command[cl.cursorPos:]...)...)
	cl.cursorPos++
}

func (cl *CommandLineComponent) deleteCharBackward() {
	if cl.cursorPos == 0 {
		return
	}
	cl.command = append(cl.command[:cl.cursorPos-1], cl.command[cl.cursorPos:]...)
	cl.cursorPos--
}

func (cl *CommandLineComponent) setCommand(cmd string) {
	cl.command = []rune(cmd)
	cl.cursorPos = len(cl.command)
}

// SetWidth sets the width for rendering
func (cl *CommandLineComponent) SetWidth(width int) {
	cl.width = width
}

// Update removes expired toasts
func (cl *CommandLineComponent) Update() {
	now := cl.now()
	active := cl.toasts[:0]
	for _, toast := range cl.toasts {
		if now.Sub(toast.Created) < toast.Timeout {
			active = append(active, toast)
		}
	}
	cl.toasts = active
}

// View renders the command line
func (cl *CommandLineComponent) View() string {
	if cl.mode == CommandLineCommand {
		cursorStyle := lipgloss.NewStyle().Reverse(true)
		before := string(cl.command[:cl.cursorPos])
		var display string
		if cl.cursorPos < len(cl.command) {
			display = ":" + before + cursorStyle.Render(string(cl.command[cl.cursorPos])) + string(cl.command[cl.cursorPos+1:])
		} else {
			display = ":" + before + cursorStyle.Render(" ")
		}
		return lipgloss.NewStyle().Foreground(globalTheme.TextColor).Width(cl.width).Render(display)
	}

	if len(cl.toasts) > 0 {
		toast := cl.toasts[len(cl.toasts)-1]
		style := cl.style
		switch toast.Type {
		case "success":
			style = style.Background(globalTheme.Success)
		case "warning":
			style = style.Background(globalTheme.Warning).Foreground(globalTheme.PaneBackground)
		case "error":
			style = style.Background(globalTheme.Error)
		}
		return style.Render(toast.Message)
	}

	return ""
}

// AddToHistory adds a command to the history
func (cl *CommandLineComponent) AddToHistory(cmd string) {
	if cmd == "" {
		return
	}
	if len(cl.history) > 0 && cl.history[len(cl.history)-1] == cmd {
		return
	}
	cl.history = append(cl.history, cmd)
	cl.historyCursor = len(cl.history)
}

// NavigateHistory navigates through command history.
// direction: -1 for previous (up), +1 for next (down)
func (cl *CommandLineComponent) NavigateHistory(direction int) bool {
	if len(cl.history) == 0 {
		return false
	}

	switch {
	case direction < 0:
		if !cl.historySaved {
			cl.historyPending = cl.GetCommand()
			cl.historySaved = true
		}
		if cl.historyCursor > 0 {
			cl.historyCursor--
		}
		cl.setCommand(cl.history[cl.historyCursor])
		return true
	case direction > 0:
		if !cl.historySaved {
			return false
		}
		if cl.historyCursor < len(cl.history)-1 {
			cl.historyCursor++
			cl.setCommand(cl.history[cl.historyCursor])
			return true
		}
		cl.historyCursor = len(cl.history)
		cl.setCommand(cl.historyPending)
		cl.historySaved = false
		return true
	}
	return false
}

// HandleKey handles keyboard input while in command mode
func (cl *CommandLineComponent) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if !cl.IsInCommandMode() {
		return nil, false
	}

	cancelled := func() tea.Msg { return commandCancelledMsg{} }

	switch msg.String() {
	case "esc", "ctrl+c":
		cl.ExitCommandMode()
		return cancelled, true

	case "enter":
		cmdText := cl.GetCommand()
		cl.AddToHistory(cmdText)
		cl.ExitCommandMode()
		if cmdText == "" {
			return cancelled, true
		}
		return func() tea.Msg { return commandReadyMsg{command: cmdText} }, true

	case "backspace", "ctrl+h":
		if cl.cursorPos == 0 {
			cl.ExitCommandMode()
			return cancelled, true
		}
		cl.deleteCharBackward()
		return nil, true

	case "left":
		if cl.cursorPos > 0 {
			cl.cursorPos--
		}
		return nil, true

	case "right":
		if cl.cursorPos < len(cl.command) {
			cl.cursorPos++
		}
		return nil, true

	case "home", "ctrl+a":
		cl.cursorPos = 0
		return nil, true

	case "end", "ctrl+e":
		cl.cursorPos = len(cl.command)
		return nil, true

	case "up":
		cl.NavigateHistory(-1)
		return nil, true

	case "down":
		cl.NavigateHistory(1)
		return nil, true

	case "space", " ":
		cl.insertRune(' ')
		return nil, true

	default:
		if msg.Type == tea.KeyRunes && len(msg.Runes) > 0 {
			for _, r := range msg.Runes {
				cl.insertRune(r)
			}
			return nil, true
		}
		return nil, true
	}
}
