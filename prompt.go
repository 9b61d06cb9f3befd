package main

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Placeholder text constants
const (
	PlaceholderDefault = "Escribe tu mensaje... (Enter para enviar, : para comandos)"
	PlaceholderSending = "Esperando respuesta..."
)

// promptCharLimit bounds a single chat message
const promptCharLimit = 2000

// PromptComponent is the single-line message input
type PromptComponent struct {
	Input textinput.Model
	Width int
	Style lipgloss.Style
}

// NewPromptComponent creates a new prompt component
func NewPromptComponent(width int) PromptComponent {
	ti := textinput.New()
	ti.Placeholder = PlaceholderDefault
	ti.Prompt = "› "
	ti.CharLimit = promptCharLimit
	ti.Focus()

	p := PromptComponent{
		Input: ti,
		Style: globalTheme.PromptFrame,
	}
	p.SetWidth(width)
	return p
}

// SetWidth updates the width of the prompt component
func (p *PromptComponent) SetWidth(width int) {
	p.Width = width
	p.Style = p.Style.Width(width)
	inner := width - 2 - lipgloss.Width(p.Input.Prompt)
	if inner < 1 {
		inner = 1
	}
	p.Input.Width = inner
}

// SetValue replaces the input text
func (p *PromptComponent) SetValue(value string) {
	p.Input.SetValue(value)
	p.Input.CursorEnd()
}

// Value returns the input text
func (p PromptComponent) Value() string {
	return p.Input.Value()
}

// SetBusy dims the prompt while a reply is pending. Typing stays possible.
func (p *PromptComponent) SetBusy(busy bool) {
	if busy {
		p.Input.Placeholder = PlaceholderSending
		p.Style = p.Style.BorderForeground(globalTheme.DarkBorder)
		return
	}
	p.Input.Placeholder = PlaceholderDefault
	p.Style = p.Style.BorderForeground(globalTheme.Brand)
}

// Blur removes keyboard focus
func (p *PromptComponent) Blur() {
	p.Input.Blur()
}

// Update handles messages for the prompt component
func (p PromptComponent) Update(msg tea.Msg) (PromptComponent, tea.Cmd) {
	var cmd tea.Cmd
	p.Input, cmd = p.Input.Update(msg)
	return p, cmd
}

// View renders the prompt component
func (p PromptComponent) View() string {
	return p.Style.Render(p.Input.View())
}
