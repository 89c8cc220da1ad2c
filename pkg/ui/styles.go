package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTitle)).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMatch)).Underline(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSelectedFg)).
			Background(lipgloss.Color(ColorSelectedBg))
)

// RenderError formats a fatal error line for the terminal.
func RenderError(msg string) string {
	return errorStyle.Render("✖ " + msg)
}

// RenderNotice formats an informational line for the terminal.
func RenderNotice(msg string) string {
	return successStyle.Render(msg)
}

// renderAnswer is the line a prompt leaves behind once answered.
func renderAnswer(label, answer string) string {
	return successStyle.Render(MarkerDone) + " " + titleStyle.Render(label) + " " + answer + "\n"
}
