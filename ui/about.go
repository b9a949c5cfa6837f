package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderAboutModal(a AppView, width, height int) string {
	var sb strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(successColor).
		Bold(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(dimColor)

	sb.WriteString(titleStyle.Render("chatline"))
	sb.WriteString("\n")
	sb.WriteString(valueStyle.Render("A terminal client for conversational chat services"))
	sb.WriteString("\n\n")

	rows := [][2]string{
		{"Version: ", a.version},
		{"License: ", a.license},
		{"Server: ", a.cfg.ServerURL},
		{"Instance: ", a.manager.Namespace()},
		{"Storage: ", a.cfg.StorageBackend + " in " + a.cfg.DataDir()},
	}
	for _, row := range rows {
		sb.WriteString(labelStyle.Render(row[0]))
		sb.WriteString(valueStyle.Render(row[1]))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(valueStyle.Render("Press Esc or Alt+A to close"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, boxStyle.Render(sb.String()))
}
