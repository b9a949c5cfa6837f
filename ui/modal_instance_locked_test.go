package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestInstanceLockedModal(t *testing.T) {
	tests := []struct {
		name      string
		key       tea.KeyMsg
		wantForce bool
	}{
		{"enter exits", tea.KeyMsg{Type: tea.KeyEnter}, false},
		{"esc exits", tea.KeyMsg{Type: tea.KeyEsc}, false},
		{"d forces", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tea.Model = NewInstanceLockedModal("chat1", 4242)
			m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

			view := m.View()
			if !strings.Contains(view, "chat1") || !strings.Contains(view, "4242") {
				t.Errorf("view missing instance or pid:\n%s", view)
			}

			m, cmd := m.Update(tt.key)
			if cmd == nil {
				t.Fatal("key did not quit")
			}
			if got := m.(InstanceLockedModal).ForceDelete(); got != tt.wantForce {
				t.Errorf("ForceDelete() = %v, want %v", got, tt.wantForce)
			}
		})
	}
}

func TestNoticeModalTooSmall(t *testing.T) {
	if got := renderNoticeModal(10, 5, "t", "m", "f"); got != "Terminal too small" {
		t.Errorf("renderNoticeModal() = %q", got)
	}
}
