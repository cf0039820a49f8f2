package tui

import "github.com/charmbracelet/lipgloss"

// inputWidth is the visible width of each text input.
const inputWidth = 40

var (
	accentColor  = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	dimColor     = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	errorColor   = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	successColor = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

	labelStyle        = lipgloss.NewStyle().Bold(true)
	focusedLabelStyle = labelStyle.Foreground(accentColor)

	fieldErrorStyle = lipgloss.NewStyle().Foreground(errorColor)
	hintStyle       = lipgloss.NewStyle().Foreground(dimColor)

	successBanner = lipgloss.NewStyle().
			Foreground(successColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(successColor).
			Padding(0, 1)

	failureBanner = successBanner.
			Foreground(errorColor).
			BorderForeground(errorColor)
)

// ButtonStyle returns the submit button style for its state.
// A disabled button is dimmed regardless of focus.
func ButtonStyle(focused, disabled bool) lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 2)
	switch {
	case disabled:
		return s.Foreground(dimColor).BorderForeground(dimColor)
	case focused:
		return s.Bold(true).Foreground(accentColor).BorderForeground(accentColor)
	default:
		return s.BorderForeground(dimColor)
	}
}
