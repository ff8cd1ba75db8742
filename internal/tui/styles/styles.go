package styles

import "github.com/charmbracelet/lipgloss"

// Centralized Lip Gloss styles for the secrules TUI.
// All colors are specified using hex codes.

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff5fd2")).
			MarginBottom(1).
			PaddingLeft(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginBottom(1).
			PaddingLeft(1)

	HelpStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(lipgloss.Color("#a8a8a8")).
			MarginTop(1).
			Padding(0, 1)

	// StatusBarStyle renders the one-line summary under the panes.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8a8a8")).
			PaddingLeft(2)

	// Containers for consistent layout spacing
	HeaderContainerStyle = lipgloss.NewStyle().
				MarginLeft(1).
				MarginBottom(1)

	HelpContainerStyle = lipgloss.NewStyle().
				MarginLeft(1).
				MarginTop(1)

	// Left padding for the main panes area to align with header/help
	MainContainerStyle = lipgloss.NewStyle().
				MarginLeft(1)

	// Shared pane styles with rounded borders and sensible spacing.
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5f5fff")). // default border color
			PaddingLeft(2).
			PaddingRight(1)

	// Focused pane variant that highlights the active pane.
	PaneFocusedStyle = PaneStyle.
				BorderForeground(lipgloss.Color("#ff5faf"))

	severityCriticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff005f"))
	severityHighStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff8700"))
	severityMediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd700"))
	severityLowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff5f"))
	severityUnknownStyle  = lipgloss.NewStyle().Faint(true)
)

// SeverityStyle returns the accent style for a severity badge.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "critical":
		return severityCriticalStyle
	case "high":
		return severityHighStyle
	case "medium":
		return severityMediumStyle
	case "low":
		return severityLowStyle
	default:
		return severityUnknownStyle
	}
}
