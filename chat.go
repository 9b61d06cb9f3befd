package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	assistantPrefix = "🏠  "
	userPrefix      = "Tú:"
	errorPrefix     = "❌"
	treeFinalPrefix = " ╰ "
)

// ChatComponent renders the conversation in a scrollable viewport
type ChatComponent struct {
	Viewport     viewport.Model
	Messages     []Message
	Width        int
	Height       int
	Style        lipgloss.Style
	AutoScroll   bool // Track if auto-scrolling is enabled
	UserScrolled bool // Track if user has manually scrolled

	greeting string

	// Markdown rendering
	markdownRenderer *glamour.TermRenderer
	markdownEnabled  bool
}

// NewChatComponent creates a new chat component
func NewChatComponent(width, height int, markdownEnabled bool) *ChatComponent {
	vp := viewport.New(width, height)

	var renderer *glamour.TermRenderer
	if markdownEnabled {
		rendererStart := time.Now()
		var err error
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(0), // 0 disables glamour's word wrapping
		)
		slog.Debug("markdown renderer initialized", "load time", time.Since(rendererStart), "err", err)
	}

	c := &ChatComponent{
		Viewport:         vp,
		Messages:         []Message{},
		Width:            width,
		Height:           height,
		AutoScroll:       true,
		markdownRenderer: renderer,
		markdownEnabled:  markdownEnabled,
		Style: lipgloss.NewStyle().
			Width(width).
			Height(height),
	}
	c.UpdateContent()
	return c
}

// SetGreeting sets the line shown above the conversation
func (c *ChatComponent) SetGreeting(greeting string) {
	c.greeting = greeting
	c.UpdateContent()
}

// SetSize updates the width & height of the chat component
func (c *ChatComponent) SetSize(width, height int) {
	c.Width = width
	c.Style = c.Style.Width(width)
	c.Viewport.Width = width

	if height < 0 {
		height = 0
	}
	c.Height = height
	c.Style = c.Style.Height(c.Height)
	c.Viewport.Height = c.Height
	c.UpdateContent()
}

// SetMessages replaces the displayed conversation
func (c *ChatComponent) SetMessages(messages []Message) {
	grew := len(messages) > len(c.Messages)
	c.Messages = messages
	if grew {
		c.AutoScroll = true
		c.UserScrolled = false
	}
	c.UpdateContent()
}

// ScrollHalfPageUp scrolls the viewport up by half a page
func (c *ChatComponent) ScrollHalfPageUp() {
	c.Viewport.HalfPageUp()
	c.UserScrolled = true
}

// ScrollHalfPageDown scrolls the viewport down by half a page
func (c *ChatComponent) ScrollHalfPageDown() {
	c.Viewport.HalfPageDown()
	c.syncScrollState()
}

// ScrollToTop scrolls to the beginning of the chat history
func (c *ChatComponent) ScrollToTop() {
	c.Viewport.GotoTop()
	c.UserScrolled = true
}

// ScrollToBottom scrolls to the latest message
func (c *ChatComponent) ScrollToBottom() {
	c.Viewport.GotoBottom()
	c.UserScrolled = false
	c.AutoScroll = true
}

func (c *ChatComponent) syncScrollState() {
	if c.Viewport.AtBottom() {
		c.UserScrolled = false
		c.AutoScroll = true
	} else {
		c.UserScrolled = true
	}
}

// UpdateContent updates the viewport content based on the messages
func (c *ChatComponent) UpdateContent() {
	var views []string
	if c.greeting != "" {
		views = append(views, lipgloss.NewStyle().
			Foreground(globalTheme.MutedText).
			Padding(0, 1).
			Render(c.greeting))
	}

	for _, msg := range c.Messages {
		views = append(views, c.renderMessage(msg))
	}

	c.Viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, views...))

	// Only auto-scroll if user hasn't manually scrolled
	if c.AutoScroll && !c.UserScrolled {
		c.Viewport.GotoBottom()
	}
}

func (c *ChatComponent) renderMessage(msg Message) string {
	switch {
	case msg.Transient():
		return globalTheme.RenderPlaceholder(assistantPrefix + msg.Content).String()
	case msg.Role == RoleUser:
		return c.renderUser(msg.Content)
	case strings.HasPrefix(msg.Content, errorPrefix):
		return globalTheme.RenderError(c.renderPlainText(msg.Content)).String()
	default:
		prefix := lipgloss.NewStyle().Bold(true).Render(assistantPrefix)
		return prefix + c.renderMarkdown(msg.Content)
	}
}

func (c *ChatComponent) renderUser(content string) string {
	const indentSpaces = 4
	wrapWidth := c.Width - indentSpaces
	if wrapWidth < 1 {
		wrapWidth = 1
	}

	wrapped := wordwrap.String(content, wrapWidth)
	indent := strings.Repeat(" ", indentSpaces)
	lines := strings.Split(wrapped, "\n")
	for i := range lines {
		lines[i] = indent + lines[i]
	}
	return globalTheme.RenderUser(fmt.Sprintf("%s\n%s", userPrefix, strings.Join(lines, "\n"))).String()
}

// renderMarkdown renders markdown content with glamour
func (c *ChatComponent) renderMarkdown(content string) string {
	if !c.markdownEnabled || c.markdownRenderer == nil {
		return c.renderPlainText(content)
	}

	rendered, err := c.markdownRenderer.Render(content)
	if err != nil {
		return c.renderPlainText(content)
	}

	// Glamour runs with WordWrap(0); wrap here so resizes do not need a new renderer.
	wrapped := wordwrap.String(rendered, c.Width-2)
	return strings.TrimSpace(wrapped)
}

func (c *ChatComponent) renderPlainText(content string) string {
	width := c.Width - 2
	if width < 1 {
		width = 1
	}
	return strings.TrimSpace(wordwrap.String(content, width))
}

// Update handles scrolling for the chat component
func (c ChatComponent) Update(msg tea.Msg) (ChatComponent, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			c.Viewport.ScrollUp(1)
			c.UserScrolled = true
		case tea.MouseButtonWheelDown:
			c.Viewport.ScrollDown(1)
			c.syncScrollState()
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			c.ScrollHalfPageUp()
		case "pgdown":
			c.ScrollHalfPageDown()
		case "ctrl+home":
			c.ScrollToTop()
		case "ctrl+end":
			c.ScrollToBottom()
		}
		return c, nil
	}
	c.Viewport, cmd = c.Viewport.Update(msg)
	return c, cmd
}

// View renders the chat component
func (c ChatComponent) View() string {
	c.Style = c.Style.Height(c.Height)
	c.Viewport.Height = c.Height
	return c.Style.Render(c.Viewport.View())
}
