package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusComponent represents the status bar component
type StatusComponent struct {
	User     string
	Endpoint string
	State    DispatchState
	Armed    bool
	Width    int
	Style    lipgloss.Style
	Spinner  spinner.Model

	sendingSince time.Time
	now          func() time.Time
}

// NewStatusComponent creates a new status component
func NewStatusComponent(width int) StatusComponent {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(globalTheme.Warning)

	return StatusComponent{
		Width:   width,
		Spinner: sp,
		now:     time.Now,
		Style: lipgloss.NewStyle().
			Foreground(globalTheme.TextColor),
	}
}

// SetSession shows who is signed in
func (s *StatusComponent) SetSession(session *Session) {
	if session == nil {
		s.User = ""
		return
	}
	s.User = session.DisplayName
	if s.User == "" {
		s.User = "#" + session.UserID
	}
}

// SetEndpoint sets the assistant endpoint shown on the right
func (s *StatusComponent) SetEndpoint(endpoint string) {
	s.Endpoint = endpoint
}

// SetState updates the dispatch state. Entering sending starts the spinner.
func (s *StatusComponent) SetState(state DispatchState) tea.Cmd {
	if state == s.State {
		return nil
	}
	s.State = state
	if state == StateSending {
		s.sendingSince = s.now()
		return s.Spinner.Tick
	}
	return nil
}

// SetWidth updates the width of the status component
func (s *StatusComponent) SetWidth(width int) {
	s.Width = width
}

// Update advances the spinner while sending
func (s StatusComponent) Update(msg tea.Msg) (StatusComponent, tea.Cmd) {
	if s.State != StateSending {
		return s, nil
	}
	var cmd tea.Cmd
	s.Spinner, cmd = s.Spinner.Update(msg)
	return s, cmd
}

// View renders the status component
func (s StatusComponent) View() string {
	left := s.renderLeftSection()
	middle := s.renderMiddleSection()
	right := s.renderRightSection()

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	middleWidth := lipgloss.Width(middle)

	if leftWidth+middleWidth+rightWidth > s.Width {
		middle = ""
		middleWidth = 0
		if leftWidth+rightWidth > s.Width {
			right = truncateString(right, s.Width-leftWidth)
			rightWidth = lipgloss.Width(right)
		}
	}

	var line string
	if middle != "" {
		total := leftWidth + middleWidth + rightWidth
		leftSpacing := (s.Width - total) / 2
		rightSpacing := s.Width - total - leftSpacing
		line = left + strings.Repeat(" ", leftSpacing) + middle + strings.Repeat(" ", rightSpacing) + right
	} else {
		spacing := s.Width - leftWidth - rightWidth
		if spacing < 0 {
			spacing = 0
		}
		line = left + strings.Repeat(" ", spacing) + right
	}

	return s.Style.Width(s.Width).Render(line)
}

// renderLeftSection shows the signed-in user
func (s StatusComponent) renderLeftSection() string {
	if s.User == "" {
		return " 🔒 sin sesión"
	}
	return " 👤 " + lipgloss.NewStyle().Foreground(globalTheme.Brand).Bold(true).Render(s.User)
}

// renderMiddleSection shows the dispatch state and the action indicator
func (s StatusComponent) renderMiddleSection() string {
	var parts []string
	if s.State == StateSending {
		status := s.Spinner.View() + " enviando"
		if !s.sendingSince.IsZero() {
			if wait := int(s.now().Sub(s.sendingSince).Seconds()); wait >= 3 {
				status += fmt.Sprintf(" %ds", wait)
			}
		}
		parts = append(parts, status)
	}
	if s.Armed {
		parts = append(parts, lipgloss.NewStyle().Foreground(globalTheme.Warning).Render("⚠️  acción pendiente"))
	}
	return strings.Join(parts, "   ")
}

// renderRightSection shows the assistant endpoint host
func (s StatusComponent) renderRightSection() string {
	style := lipgloss.NewStyle().Foreground(globalTheme.MutedText)
	if s.Endpoint == "" {
		return lipgloss.NewStyle().Foreground(globalTheme.Error).Render("webhook no configurado") + " 🔌 "
	}
	host := s.Endpoint
	if u, err := url.Parse(s.Endpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	return style.Render(host) + " ✅ "
}

// truncateString truncates a string to fit within maxWidth, adding "..." if needed
func truncateString(str string, maxWidth int) string {
	if lipgloss.Width(str) <= maxWidth {
		return str
	}
	if maxWidth <= 3 {
		return "..."
	}

	runes := []rune(str)
	left, right := 0, len(runes)
	for left < right {
		mid := (left + right + 1) / 2
		if lipgloss.Width(string(runes[:mid])+"...") <= maxWidth {
			left = mid
		} else {
			right = mid - 1
		}
	}
	if left == 0 {
		return "..."
	}
	return string(runes[:left]) + "..."
}
