package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal(width, height int) string {
	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("chatline - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	entry := func(keys, desc string) string {
		return fmt.Sprintf("• %-13s %s", keys, desc)
	}

	globalActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Global Actions"),
		entry("Ctrl+R", "Reset conversation"),
		entry("Alt+F", "Search conversation"),
		entry("Alt+A", "About"),
		entry("Alt+H", "Toggle this help"),
		entry("Alt+Q", "Quit"),
	)

	chatNavigation := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Chat Navigation"),
		entry("Alt+J", "Half page down"),
		entry("Alt+K", "Half page up"),
		entry("PgDn", "Full page down"),
		entry("PgUp", "Full page up"),
		entry("Alt+g", "Jump to top"),
		entry("Alt+G", "Jump to bottom"),
	)

	chatActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Chat Actions"),
		entry("Enter", "Send message"),
		entry("Alt+Enter", "New line"),
		entry("Alt+Y", "Copy last reply"),
		entry("Alt+C", "Copy conversation"),
	)

	tips := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Tips"),
		"• One message at a time: Enter is",
		"  ignored while a reply is pending",
		fmt.Sprintf("• Instance: %s", a.manager.Namespace()),
	)

	column1 := lipgloss.JoinVertical(
		lipgloss.Left,
		globalActions,
		"",
		tips,
	)

	column2 := lipgloss.JoinVertical(
		lipgloss.Left,
		chatNavigation,
		"",
		chatActions,
	)

	columnStyle := lipgloss.NewStyle().Width(42).PaddingLeft(4)

	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(column1),
		columnStyle.Render(column2),
	)

	footer := DimStyle.Render("Press Alt+H or Esc to close this help")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		twoColumns,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox.Render(content),
	)
}
