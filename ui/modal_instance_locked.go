package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// InstanceLockedModal is shown when another chatline process has the
// instance open. The user can exit or force delete the lock file.
type InstanceLockedModal struct {
	instance    string
	runningPID  int
	width       int
	height      int
	forceDelete bool
}

func NewInstanceLockedModal(instance string, runningPID int) InstanceLockedModal {
	return InstanceLockedModal{
		instance:   instance,
		runningPID: runningPID,
	}
}

func (m InstanceLockedModal) Init() tea.Cmd {
	return nil
}

func (m InstanceLockedModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc", "ctrl+c":
			return m, tea.Quit
		case "d", "D":
			m.forceDelete = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// ForceDelete returns true if the user chose to force delete the lock file
func (m InstanceLockedModal) ForceDelete() bool {
	return m.forceDelete
}

func (m InstanceLockedModal) View() string {
	message := fmt.Sprintf(
		"Instance %q is already open in another\n"+
			"chatline process (PID %d).\n\n"+
			"Each instance keeps one conversation, so only one\n"+
			"window may drive it at a time.\n\n"+
			"Close the other window, or start this one with\n"+
			"--instance <name> for a separate conversation.\n\n"+
			"If you think this is a mistake, press D to force delete\n"+
			"the lock file and open the chat anyway.",
		m.instance, m.runningPID)

	return renderNoticeModal(m.width, m.height,
		"⚠️  Instance Already Open  ⚠️",
		message,
		"Enter Exit │ D Force delete lock file")
}

// renderNoticeModal draws the borderless three-section modal: a title, the
// message under a rule, and a footer under a rule.
func renderNoticeModal(width, height int, title, message, footer string) string {
	if width < 20 || height < 10 {
		return "Terminal too small"
	}

	modalWidth := 60
	if width < modalWidth+10 {
		modalWidth = width - 10
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(dangerColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(title)

	var messageLines []string
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))

	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Center)

	for _, line := range strings.Split(message, "\n") {
		messageLines = append(messageLines, messageStyle.Render(line))
	}

	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))

	messageSection := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(strings.Join(messageLines, "\n"))

	footerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	content := strings.Join([]string{titleSection, messageSection, footerSection}, "\n")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
