package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatline/config"
	appmodel "chatline/model"
	"chatline/storage"
)

type AppView struct {
	// Conversation state lives in the manager; the view only reads snapshots
	manager *appmodel.Manager
	cfg     *config.Config

	// UI Components
	viewport       viewport.Model
	textarea       textarea.Model
	loadingSpinner spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	// Rendered markdown keyed by message id
	rendered map[string]string
	// First viewport line of each message, filled by updateViewportContent
	messageLineOffsets []int

	showHelp  bool
	showAbout bool

	showMessageSearch      bool
	messageSearchInput     textinput.Model
	messageSearchResults   []storage.MessageMatch
	selectedSearchIdx      int
	messageSearchScrollIdx int
	highlightedMessageIdx  int

	// Transient status line notice ("Copied", "Conversation reset")
	notice    string
	noticeSeq int

	version string
	license string
}

func NewAppView(cfg *config.Config, manager *appmodel.Manager, version, license string) AppView {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter inserts a newline; plain Enter submits (handled in Update)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	vp := viewport.New(0, 0)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = AssistantStyle

	messageSearchInput := textinput.New()
	messageSearchInput.Prompt = "Search: "
	messageSearchInput.CharLimit = 100

	return AppView{
		manager:               manager,
		cfg:                   cfg,
		viewport:              vp,
		textarea:              ta,
		loadingSpinner:        sp,
		rendered:              make(map[string]string),
		messageSearchInput:    messageSearchInput,
		highlightedMessageIdx: -1,
		version:               version,
		license:               license,
	}
}

func (a AppView) Init() tea.Cmd {
	// Markdown rendering waits for the first WindowSizeMsg so it knows the width
	return textarea.Blink
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading chatline..."
	}

	// Help stays on top so it can be peeked at from any modal
	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}

	if a.showMessageSearch {
		return renderMessageSearch(a.messageSearchInput, a.messageSearchResults, a.selectedSearchIdx, a.messageSearchScrollIdx, a.width, a.height)
	}

	if a.showAbout {
		return renderAboutModal(a, a.width, a.height)
	}

	snap := a.manager.Snapshot()

	// Title bar: "chatline - instance | session id"
	appText := AssistantStyle.Render("chatline")
	instanceText := UserStyle.Render(fmt.Sprintf(" - %s", snap.Namespace))
	sessionText := DimStyle.Render(fmt.Sprintf(" | %s", shortenSessionID(snap.SessionID, 24)))
	title := appText + instanceText + sessionText
	if snap.Pending {
		title += TitleStyle.Render(fmt.Sprintf(" | %s waiting", a.loadingSpinner.View()))
	}

	// Empty line between title and messages
	separator := ""

	statusBar := formatStatusHints(
		"Alt+Q", "Quit",
		"Ctrl+R", "Reset",
		"Alt+F", "Search",
		"Alt+Enter", "New Line",
		"Enter", "Send",
		"Alt+Y", "Copy",
		"Alt+H", "Help",
	)
	if a.notice != "" {
		statusBar = NoticeStyle.Render(a.notice) + "  " + statusBar
	}
	statusBar = StatusStyle.MaxWidth(a.width).Render(statusBar)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		separator,
		a.viewport.View(),
		a.textarea.View(),
		statusBar,
	)
}

// layout sizes the viewport around the title (1), separator (1),
// textarea (3) and status bar (1).
func (a *AppView) layout() {
	viewportHeight := a.height - 6
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	a.viewport.Width = a.width
	a.viewport.Height = viewportHeight
	a.textarea.SetWidth(a.width)
}
