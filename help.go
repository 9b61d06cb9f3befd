package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpWindow lists the key bindings and : commands
type HelpWindow struct {
	width  int
	height int
}

// NewHelpWindow creates a new help window
func NewHelpWindow() HelpWindow {
	return HelpWindow{width: 80, height: 20}
}

// SetSize updates the dimensions of the help window
func (h *HelpWindow) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// Render generates the styled help content
func (h HelpWindow) Render(keys keyMap, registry CommandRegistry) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(globalTheme.Warning).
		MarginBottom(1)
	keyStyle := lipgloss.NewStyle().
		Foreground(globalTheme.Brand).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(globalTheme.TextColor)

	var b strings.Builder
	b.WriteString(headerStyle.Render("Teclas"))
	b.WriteString("\n")
	for _, binding := range keys.bindings() {
		help := binding.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-12s", help.Key)), descStyle.Render(help.Desc)))
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Comandos"))
	b.WriteString("\n")
	for _, cmd := range registry.GetAllCommands() {
		name := ":" + strings.TrimPrefix(cmd.Name, "/")
		b.WriteString(fmt.Sprintf("  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-12s", name)), descStyle.Render(cmd.Description)))
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(globalTheme.MutedText).Render("Pulsa cualquier tecla para volver al chat"))

	return globalTheme.Border.
		Width(h.width - 2).
		Height(h.height - 2).
		Padding(0, 1).
		Render(b.String())
}
