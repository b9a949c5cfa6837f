package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	dimColor       = lipgloss.Color("7")
	accentColor    = lipgloss.Color("12")
	successColor   = lipgloss.Color("10")
	warningColor   = lipgloss.Color("11")
	dangerColor    = lipgloss.Color("9")
	highlightColor = lipgloss.Color("13")

	// Sender styles carry no background so terminal transparency survives
	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// Locally synthesized failure replies
	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)
)

// FormatFooter pairs keys with descriptions, descriptions in bold accent.
// FormatFooter("Enter", "Select", "Esc", "Close") → "Enter Select  Esc Close"
func FormatFooter(parts ...string) string {
	return formatKeyHints(lipgloss.NewStyle().Foreground(accentColor).Bold(true), parts...)
}

// formatStatusHints is FormatFooter for the main chat screen, in user green.
func formatStatusHints(parts ...string) string {
	return formatKeyHints(lipgloss.NewStyle().Foreground(successColor).Bold(true), parts...)
}

func formatKeyHints(descStyle lipgloss.Style, parts ...string) string {
	var result []string
	for i := 0; i+1 < len(parts); i += 2 {
		result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
	}
	return strings.Join(result, "  ")
}

// shortenSessionID keeps session ids readable in the title bar.
func shortenSessionID(id string, width int) string {
	if id == "" {
		return "no session"
	}
	return runewidth.Truncate(id, width, "…")
}
