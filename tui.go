package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	ctrlCDebounceTime = 200 * time.Millisecond  // Debounce duplicate ctrl-c events
	ctrlCWindowTime   = 2000 * time.Millisecond // Window for double ctrl-c to quit
)

// TUIModel represents the bubbletea model for the TUI
type TUIModel struct {
	config        *Config
	width, height int
	theme         *Theme
	keys          keyMap

	// UI Components
	status      StatusComponent
	prompt      PromptComponent
	chat        *ChatComponent
	panel       ActionPanel
	help        HelpWindow
	commandLine *CommandLineComponent

	// UI Flags & State
	loggedOut bool
	showHelp  bool

	// Exit confirmation
	ctrlCPressed     bool
	ctrlCPressedTime time.Time

	// Command registry
	commandRegistry CommandRegistry

	// Application services (passed in, not owned)
	ctx       context.Context
	widget    *Widget
	presenter *teaPresenter
}

// NewTUIModel creates a new TUI model around a mounted widget
func NewTUIModel(ctx context.Context, config *Config, widget *Widget, presenter *teaPresenter) *TUIModel {
	theme := globalTheme

	markdownEnabled := false
	endpoint := ""
	if config != nil {
		markdownEnabled = config.UI.MarkdownEnabled
		endpoint = config.Assistant.WebhookURL
	}

	model := &TUIModel{
		config:          config,
		theme:           theme,
		keys:            defaultKeyMap(),
		status:          NewStatusComponent(80),
		prompt:          NewPromptComponent(80),
		chat:            NewChatComponent(80, 18, markdownEnabled),
		help:            NewHelpWindow(),
		commandLine:     NewCommandLineComponent(),
		commandRegistry: NewCommandRegistry(),
		ctx:             ctx,
		widget:          widget,
		presenter:       presenter,
	}

	model.status.SetEndpoint(endpoint)
	if sess := widget.Session(); sess != nil {
		model.status.SetSession(sess)
		model.chat.SetGreeting(fmt.Sprintf("Hola %s, soy el asistente de Housegur. Pregúntame por propiedades, tus tokens o tus transacciones.", greetingName(sess)))
	}

	return model
}

func greetingName(sess *Session) string {
	if sess.DisplayName != "" {
		return sess.DisplayName
	}
	return "#" + sess.UserID
}

// Init implements bubbletea.Model
func (m TUIModel) Init() tea.Cmd {
	return tea.Batch(m.presenter.Listen(), textinput.Blink)
}

// Update implements bubbletea.Model
func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	start := time.Now()
	defer func() {
		if duration := time.Since(start); duration > 100*time.Millisecond {
			slog.Warn("[bubbletea] Update() SLOW", "duration", duration, "msg_type", fmt.Sprintf("%T", msg))
		}
	}()

	// Update command line to remove expired toasts
	m.commandLine.Update()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		updated, cmd := m.chat.Update(msg)
		*m.chat = updated
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateComponentDimensions()
		return m, nil

	case chatUpdatedMsg:
		cmd := m.applySnapshot()
		return m, tea.Batch(cmd, m.presenter.Listen())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.status, cmd = m.status.Update(msg)
		return m, cmd

	case commandReadyMsg:
		cmd := m.executeCommand(msg.command)
		return m, cmd

	case exportedMsg:
		if msg.err != nil {
			slog.Warn("export failed", "error", msg.err)
			m.commandLine.AddToast(fmt.Sprintf("No se pudo exportar: %v", msg.err), "error", toastTimeout)
		} else {
			m.commandLine.AddToast("Conversación exportada a "+msg.path, "success", toastTimeout)
		}
		return m, nil

	case commandCancelledMsg:
		return m, nil

	default:
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
}

// applySnapshot copies the latest widget state into the components
func (m *TUIModel) applySnapshot() tea.Cmd {
	snap := m.presenter.Snapshot()
	if snap.LoggedOut {
		m.loggedOut = true
		m.status.SetSession(nil)
		m.panel.SetAction(nil)
		m.prompt.Blur()
		return m.status.SetState(StateIdle)
	}

	m.chat.SetMessages(snap.Messages)
	m.panel.SetAction(snap.Pending)
	m.status.Armed = snap.Pending != nil

	state := m.widget.State()
	m.prompt.SetBusy(state == StateSending)
	cmd := m.status.SetState(state)

	m.updateComponentDimensions()
	return cmd
}

// handleKeyMsg routes key presses. Command mode and help take precedence.
func (m TUIModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.commandLine.IsInCommandMode() {
		cmd, _ := m.commandLine.HandleKey(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.Quit) {
		return m.handleCtrlC()
	}
	m.ctrlCPressed = false

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.loggedOut {
		switch msg.String() {
		case "q", "esc", "enter":
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirmAction()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.cancelAction()
		return m, nil

	case key.Matches(msg, m.keys.Command) && m.prompt.Value() == "":
		m.commandLine.ClearToasts()
		m.commandLine.EnterCommandMode("")
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.handleEnterKey()

	case key.Matches(msg, m.keys.Scroll):
		updated, cmd := m.chat.Update(msg)
		*m.chat = updated
		return m, cmd
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m TUIModel) handleEnterKey() (tea.Model, tea.Cmd) {
	text := m.prompt.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}

	m.commandLine.ClearToasts()
	if !m.widget.Send(m.ctx, text) {
		m.commandLine.AddToast("Espera a que termine la respuesta anterior", "warning", toastTimeout)
		return m, nil
	}
	m.prompt.SetValue("")
	m.chat.ScrollToBottom()
	return m, nil
}

// handleCtrlC clears the prompt on the first press and quits on a second
// press within ctrlCWindowTime
func (m TUIModel) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()
	if m.ctrlCPressed {
		elapsed := now.Sub(m.ctrlCPressedTime)
		if elapsed < ctrlCDebounceTime {
			return m, nil
		}
		if elapsed < ctrlCWindowTime {
			return m, tea.Quit
		}
	}

	if m.loggedOut {
		return m, tea.Quit
	}

	m.ctrlCPressed = true
	m.ctrlCPressedTime = now
	m.prompt.SetValue("")
	m.commandLine.AddToast("Pulsa ctrl+c otra vez para salir", "info", ctrlCWindowTime)
	return m, nil
}

func (m *TUIModel) confirmAction() {
	if m.widget.Pending() == nil {
		m.commandLine.AddToast("No hay ninguna acción pendiente", "info", toastTimeout)
		return
	}
	if !m.widget.Confirm(m.ctx) {
		m.commandLine.AddToast("Espera a que termine la respuesta anterior", "warning", toastTimeout)
	}
}

func (m *TUIModel) cancelAction() {
	if !m.widget.Cancel() {
		m.commandLine.AddToast("No hay ninguna acción pendiente", "info", toastTimeout)
	}
}

// updateComponentDimensions lays out, bottom to top: command line, status,
// prompt, action panel, and the chat taking the remaining space
func (m *TUIModel) updateComponentDimensions() {
	if m.width == 0 || m.height == 0 {
		return
	}

	const commandLineHeight = 1
	const statusHeight = 1
	const promptHeight = 3 // one line plus border

	m.status.SetWidth(m.width)
	m.commandLine.SetWidth(m.width)
	m.prompt.SetWidth(m.width - 2)
	m.panel.SetWidth(m.width)

	chatHeight := m.height - commandLineHeight - statusHeight - promptHeight - m.panel.Height()
	if chatHeight < 0 {
		chatHeight = 0
	}
	m.chat.SetSize(m.width, chatHeight)
	m.help.SetSize(m.width, chatHeight+m.panel.Height())
}

// View implements bubbletea.Model
func (m TUIModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.loggedOut {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderLoggedOutView(m.width, m.height-1),
			m.commandLine.View(),
		)
	}

	var main string
	if m.showHelp {
		main = m.help.Render(m.keys, m.commandRegistry)
	} else {
		parts := []string{m.chat.View()}
		if m.panel.Active() {
			parts = append(parts, m.panel.View())
		}
		main = lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		main,
		m.prompt.View(),
		m.status.View(),
		m.commandLine.View(),
	)
}

// renderLoggedOutView is shown when there is no session
func (m TUIModel) renderLoggedOutView(width, height int) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.Brand).
		Align(lipgloss.Center).
		Width(width)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(m.theme.TextColor).
		Align(lipgloss.Center).
		Width(width)

	hintStyle := lipgloss.NewStyle().
		Foreground(m.theme.Warning).
		PaddingLeft(2)

	hints := []string{
		"▶ hgchat login --name <nombre> --email <email>",
		"▶ Pulsa `q` para salir",
	}
	var hintViews []string
	for _, hint := range hints {
		hintViews = append(hintViews, hintStyle.Render(hint))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Housegur"),
		"",
		subtitleStyle.Render(loggedOutText),
		"",
		lipgloss.JoinVertical(lipgloss.Left, hintViews...),
	)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
