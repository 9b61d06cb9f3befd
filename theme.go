package main

import "github.com/charmbracelet/lipgloss"

// globalTheme is the application-wide theme instance
var globalTheme = NewTheme()

// Theme defines the colors and styles for the UI.
type Theme struct {
	// Housegur palette
	Brand          lipgloss.Color
	BrandDark      lipgloss.Color
	TextColor      lipgloss.Color
	MutedText      lipgloss.Color
	Warning        lipgloss.Color
	Error          lipgloss.Color
	Success        lipgloss.Color
	PaneBackground lipgloss.Color
	DarkBorder     lipgloss.Color

	// Text rendering
	RenderAssistant   func(string) lipgloss.Style
	RenderUser        func(string) lipgloss.Style
	RenderPlaceholder func(string) lipgloss.Style
	RenderError       func(string) lipgloss.Style

	// Borders and highlights
	Border      lipgloss.Style
	PromptFrame lipgloss.Style
	ActionPanel lipgloss.Style
	Highlight   lipgloss.Style
}

// NewTheme creates and returns a new Theme with the Housegur colors.
// It also sets the global theme instance.
func NewTheme() *Theme {
	brand := lipgloss.Color("#2F80ED")
	brandDark := lipgloss.Color("#1B4F91")
	textColor := lipgloss.Color("#E8EEF6")
	mutedText := lipgloss.Color("#8A94A6")
	warning := lipgloss.Color("#F2C94C")
	errorColor := lipgloss.Color("#EB5757")
	success := lipgloss.Color("#27AE60")
	paneBackground := lipgloss.Color("#0B1220")
	darkBorder := lipgloss.Color("#2A3342")

	theme := &Theme{
		Brand:          brand,
		BrandDark:      brandDark,
		TextColor:      textColor,
		MutedText:      mutedText,
		Warning:        warning,
		Error:          errorColor,
		Success:        success,
		PaneBackground: paneBackground,
		DarkBorder:     darkBorder,

		RenderAssistant: func(text string) lipgloss.Style {
			return lipgloss.NewStyle().Foreground(textColor).SetString(text)
		},
		RenderUser: func(text string) lipgloss.Style {
			return lipgloss.NewStyle().Foreground(brand).Bold(true).SetString(text)
		},
		RenderPlaceholder: func(text string) lipgloss.Style {
			return lipgloss.NewStyle().Foreground(mutedText).Italic(true).SetString(text)
		},
		RenderError: func(text string) lipgloss.Style {
			return lipgloss.NewStyle().Foreground(errorColor).SetString(text)
		},

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(darkBorder),

		PromptFrame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brand),

		ActionPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(warning).
			Padding(0, 1),

		Highlight: lipgloss.NewStyle().
			Foreground(textColor).
			Background(brandDark),
	}

	return theme
}
