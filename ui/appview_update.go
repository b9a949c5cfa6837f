package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"chatline/config"
	appmodel "chatline/model"
)

const noticeDuration = 3 * time.Second

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		a.ready = true

		// Width changed: cached markdown is wrapped for the old width
		a.rendered = make(map[string]string)
		a.updateViewportContent(true)

		return a, a.renderAllMarkdown()

	case spinner.TickMsg:
		if !a.manager.Pending() {
			return a, nil
		}
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		a.updateViewportContent(true)
		return a, cmd

	case exchangeSettledMsg:
		if msg.Err != nil {
			config.DebugLog.Debug().Err(msg.Err).Msg("exchange settled with error")
		}
		a.updateViewportContent(true)
		if msg.Discarded || msg.Reply.IsError {
			return a, nil
		}
		return a, a.renderMarkdownAsync(msg.Reply.ID, msg.Reply.Text)

	case resetDoneMsg:
		a.rendered = make(map[string]string)
		a.highlightedMessageIdx = -1
		a.updateViewportContent(true)
		cmds = append(cmds, a.setNotice("Conversation reset"))
		if a.manager.ConsumeFocusRequest() {
			a.textarea.Reset()
			cmds = append(cmds, a.textarea.Focus(), textarea.Blink)
		}
		return a, tea.Batch(cmds...)

	case markdownRenderedMsg:
		a.rendered[msg.MessageID] = msg.Rendered
		a.updateViewportContent(a.viewport.AtBottom())
		return a, nil

	case clearNoticeMsg:
		if msg.seq == a.noticeSeq {
			a.notice = ""
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "ctrl+c", "alt+q":
		config.DebugLog.Debug().Msg("quit requested")
		return a, tea.Quit
	}

	if a.showHelp {
		switch msg.String() {
		case "esc", "alt+h":
			a.showHelp = false
		}
		return a, nil
	}

	if a.showMessageSearch {
		return a.handleMessageSearchKey(msg)
	}

	if a.showAbout {
		switch msg.String() {
		case "esc", "alt+a":
			a.showAbout = false
		}
		return a, nil
	}

	switch msg.String() {
	case "alt+h":
		a.showHelp = true
		return a, nil

	case "alt+a":
		a.showAbout = true
		return a, nil

	case "alt+f":
		a.openMessageSearch()
		return a, nil

	case "ctrl+r", "alt+r":
		return a, a.manager.ResetCmd()

	case "enter":
		submitCmd := a.manager.SubmitCmd(a.textarea.Value())
		if submitCmd == nil {
			// Blank input or an exchange already in flight
			return a, nil
		}
		a.textarea.Reset()
		a.highlightedMessageIdx = -1
		a.updateViewportContent(true)
		return a, tea.Batch(submitCmd, a.loadingSpinner.Tick)

	case "alt+y":
		last, ok := lastReply(a.manager.Messages())
		if !ok {
			return a, a.setNotice("Nothing to copy yet")
		}
		return a, a.copyToClipboard(last.Text, "Copied last reply")

	case "alt+c":
		messages := a.manager.Messages()
		if len(messages) == 0 {
			return a, a.setNotice("Nothing to copy yet")
		}
		return a, a.copyToClipboard(formatConversation(messages), "Copied conversation")

	case "alt+j", "alt+down":
		a.viewport.HalfViewDown()
		return a, nil

	case "alt+k", "alt+up":
		a.viewport.HalfViewUp()
		return a, nil

	case "pgdown":
		a.viewport.ViewDown()
		return a, nil

	case "pgup":
		a.viewport.ViewUp()
		return a, nil

	case "alt+g":
		a.viewport.GotoTop()
		return a, nil

	case "alt+G":
		a.viewport.GotoBottom()
		return a, nil
	}

	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a *AppView) copyToClipboard(text, notice string) tea.Cmd {
	if err := clipboardWrite(text); err != nil {
		config.DebugLog.Warn().Err(err).Msg("clipboard write failed")
		return a.setNotice(fmt.Sprintf("Copy failed: %v", err))
	}
	return a.setNotice(notice)
}

// setNotice shows text in the status bar until noticeDuration passes or a
// newer notice replaces it.
func (a *AppView) setNotice(text string) tea.Cmd {
	a.noticeSeq++
	a.notice = text
	seq := a.noticeSeq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

// lastReply returns the most recent assistant reply that is not an apology.
func lastReply(messages []appmodel.Message) (appmodel.Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender == appmodel.SenderAssistant && !messages[i].IsError {
			return messages[i], true
		}
	}
	return appmodel.Message{}, false
}

// formatConversation renders the log as plain text for the clipboard.
func formatConversation(messages []appmodel.Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		role := "You"
		if msg.Sender == appmodel.SenderAssistant {
			role = "Assistant"
		}
		sb.WriteString(fmt.Sprintf("[%s] %s:\n%s\n\n", msg.Timestamp, role, msg.Text))
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
