package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// ActionPanel shows the action waiting for confirmation
type ActionPanel struct {
	Action *PendingAction
	Width  int
}

// SetAction replaces the displayed action. nil hides the panel.
func (p *ActionPanel) SetAction(action *PendingAction) {
	p.Action = action
}

// SetWidth updates the width of the panel
func (p *ActionPanel) SetWidth(width int) {
	p.Width = width
}

// Active reports whether an action is shown
func (p ActionPanel) Active() bool {
	return p.Action != nil
}

// Height is the number of lines the panel occupies
func (p ActionPanel) Height() int {
	if !p.Active() {
		return 0
	}
	return lipgloss.Height(p.View())
}

// View renders the panel, or nothing when no action is armed
func (p ActionPanel) View() string {
	if p.Action == nil {
		return ""
	}

	style := globalTheme.ActionPanel
	inner := p.Width - style.GetHorizontalFrameSize()
	if inner < 1 {
		inner = 1
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(globalTheme.Warning).Render("⚠️  " + p.Action.Label())
	hint := lipgloss.NewStyle().Foreground(globalTheme.MutedText).
		Render(treeFinalPrefix + "ctrl+y confirmar   ctrl+n cancelar")

	return style.Width(p.Width - 2).Render(wordwrap.String(title, inner) + "\n" + hint)
}
