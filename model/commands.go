package model

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// SubmitCmd appends text to the log right away and returns a command that
// performs the exchange. It returns nil when the submit is a no-op.
func (m *Manager) SubmitCmd(text string) tea.Cmd {
	ex, ok := m.Begin(text)
	if !ok {
		return nil
	}

	return func() tea.Msg {
		reply, err := m.Send(context.Background(), ex)
		msg, kept := m.Settle(ex, reply, err)
		return ExchangeSettledMsg{
			Reply:     msg,
			Err:       err,
			Discarded: !kept,
		}
	}
}

// ResetCmd runs Reset in the background.
func (m *Manager) ResetCmd() tea.Cmd {
	return func() tea.Msg {
		m.Reset(context.Background())
		return ResetDoneMsg{}
	}
}
