package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodel "chatline/model"
	"chatline/storage"
)

func (a *AppView) openMessageSearch() {
	a.showMessageSearch = true
	a.messageSearchInput.SetValue("")
	a.messageSearchInput.Focus()
	a.messageSearchResults = nil
	a.selectedSearchIdx = 0
	a.messageSearchScrollIdx = 0
}

func (a *AppView) closeMessageSearch() {
	a.showMessageSearch = false
	a.messageSearchInput.Blur()
}

func (a AppView) handleMessageSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "alt+f":
		a.closeMessageSearch()
		return a, nil

	case "enter":
		if len(a.messageSearchResults) == 0 {
			return a, nil
		}
		match := a.messageSearchResults[a.selectedSearchIdx]
		a.closeMessageSearch()
		a.highlightedMessageIdx = match.MessageIndex
		a.updateViewportContent(false)
		a.scrollToMessage(match.MessageIndex)
		return a, nil

	case "down", "ctrl+n":
		if a.selectedSearchIdx < len(a.messageSearchResults)-1 {
			a.selectedSearchIdx++
			a.adjustSearchScroll()
		}
		return a, nil

	case "up", "ctrl+p":
		if a.selectedSearchIdx > 0 {
			a.selectedSearchIdx--
			a.adjustSearchScroll()
		}
		return a, nil
	}

	var cmd tea.Cmd
	before := a.messageSearchInput.Value()
	a.messageSearchInput, cmd = a.messageSearchInput.Update(msg)
	if a.messageSearchInput.Value() != before {
		a.messageSearchResults = storage.SearchMessages(appmodel.ToStorage(a.manager.Messages()), a.messageSearchInput.Value())
		a.selectedSearchIdx = 0
		a.messageSearchScrollIdx = 0
	}
	return a, cmd
}

func (a *AppView) adjustSearchScroll() {
	visible := searchResultsVisible(a.height)
	if a.selectedSearchIdx < a.messageSearchScrollIdx {
		a.messageSearchScrollIdx = a.selectedSearchIdx
	}
	if a.selectedSearchIdx >= a.messageSearchScrollIdx+visible {
		a.messageSearchScrollIdx = a.selectedSearchIdx - visible + 1
	}
}

// searchResultsVisible estimates how many results fit: border, padding,
// title, input, the count line, footer and the blanks between them take
// 12 lines, scroll indicators 4 more, and a result at most 4.
func searchResultsVisible(height int) int {
	available := height - 12 - 4
	visible := available / 4
	if visible < 1 {
		visible = 1
	}
	return visible
}

func renderMessageSearch(searchInput textinput.Model, results []storage.MessageMatch, selectedIdx, scrollIdx, width, height int) string {
	modalWidth := width - 4
	if modalWidth > 100 {
		modalWidth = 100
	}

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(1, 2)

	title := TitleStyle.Render("Search Conversation")

	resultsView := ""
	if len(results) == 0 {
		if searchInput.Value() == "" {
			resultsView = DimStyle.Render("Type to search messages in this conversation...")
		} else {
			resultsView = DimStyle.Render("No matches found")
		}
	} else {
		startIdx := scrollIdx
		endIdx := scrollIdx + searchResultsVisible(height)
		if endIdx > len(results) {
			endIdx = len(results)
		}

		resultsView = fmt.Sprintf("Found %d matches:\n\n", len(results))

		if startIdx > 0 {
			resultsView += DimStyle.Render(fmt.Sprintf("↑ %d more above\n\n", startIdx))
		}

		for i := startIdx; i < endIdx; i++ {
			match := results[i]

			roleStyle, role := UserStyle, "You"
			if match.Sender == appmodel.SenderAssistant {
				roleStyle, role = AssistantStyle, "Assistant"
			}

			matchText := fmt.Sprintf("%s [%s]\n  %s", roleStyle.Render(role), match.Timestamp, match.Preview)

			if i == selectedIdx {
				matchText = SelectedStyle.Render("> " + matchText)
			} else {
				matchText = "  " + matchText
			}

			resultsView += matchText + "\n\n"
		}

		if endIdx < len(results) {
			resultsView += DimStyle.Render(fmt.Sprintf("↓ %d more below", len(results)-endIdx))
		}
	}

	footer := FormatFooter("Type", "to search", "↑/↓", "Navigate", "Enter", "Jump", "Esc", "Close")

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		searchInput.View(),
		"",
		resultsView,
		"",
		footer,
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		modalStyle.Width(modalWidth).Render(content))
}
