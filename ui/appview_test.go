package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"chatline/chatapi/testutil"
	"chatline/config"
	appmodel "chatline/model"
	"chatline/storage"
)

func newTestView(t *testing.T, backend *testutil.MockBackend) (AppView, *appmodel.Manager) {
	t.Helper()

	dataDir := t.TempDir()
	store, err := storage.NewFileStore(dataDir)
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		ServerURL:      config.DefaultServerURL,
		DataDirectory:  dataDir,
		StorageBackend: storage.BackendFile,
		Instance:       "chat1",
	}

	manager, err := appmodel.NewManager(appmodel.OptionsFromConfig(cfg, store, backend))
	if err != nil {
		t.Fatal(err)
	}

	view := NewAppView(cfg, manager, "test", "MIT")
	updated, _ := view.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(AppView), manager
}

func press(t *testing.T, a AppView, msg tea.KeyMsg) (AppView, tea.Cmd) {
	t.Helper()
	updated, cmd := a.Update(msg)
	return updated.(AppView), cmd
}

func altKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

// runUntil executes cmd (expanding batches) and returns the first message
// of type T.
func runUntil[T any](cmd tea.Cmd) (T, bool) {
	var zero T
	if cmd == nil {
		return zero, false
	}
	switch msg := cmd().(type) {
	case T:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if found, ok := runUntil[T](c); ok {
				return found, true
			}
		}
	}
	return zero, false
}

func TestEnterSubmitsMessage(t *testing.T) {
	backend := testutil.NewMockBackend("abc")
	a, manager := newTestView(t, backend)

	a.textarea.SetValue("Hello")
	a, cmd := press(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	if a.textarea.Value() != "" {
		t.Errorf("textarea not cleared: %q", a.textarea.Value())
	}
	if cmd == nil {
		t.Fatal("Enter returned no command")
	}
	msgs := manager.Messages()
	if len(msgs) != 1 || msgs[0].Text != "Hello" || !manager.Pending() {
		t.Fatalf("optimistic append missing: %+v pending=%v", msgs, manager.Pending())
	}

	settled, ok := runUntil[appmodel.ExchangeSettledMsg](cmd)
	if !ok {
		t.Fatal("no ExchangeSettledMsg produced")
	}
	if settled.Reply.Text != "Mock response" {
		t.Errorf("reply = %+v", settled.Reply)
	}

	updated, renderCmd := a.Update(settled)
	a = updated.(AppView)
	if renderCmd == nil {
		t.Error("settled reply did not trigger markdown rendering")
	}
	if manager.SessionID() != "abc" {
		t.Errorf("SessionID() = %q", manager.SessionID())
	}
}

func TestEnterIgnoredForBlankOrPending(t *testing.T) {
	a, manager := newTestView(t, testutil.NewMockBackend("abc"))

	a.textarea.SetValue("   ")
	a, cmd := press(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || len(manager.Messages()) != 0 {
		t.Errorf("blank input was submitted")
	}

	if _, ok := manager.Begin("in flight"); !ok {
		t.Fatal("Begin() rejected")
	}

	a.textarea.SetValue("second")
	a, cmd = press(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("Enter while pending returned a command")
	}
	if a.textarea.Value() != "second" {
		t.Errorf("input dropped while pending: %q", a.textarea.Value())
	}
	if len(manager.Messages()) != 1 {
		t.Errorf("messages = %d, want 1", len(manager.Messages()))
	}
}

func TestErrorReplySkipsMarkdown(t *testing.T) {
	backend := testutil.NewMockBackend("abc")
	backend.ChatFunc = func(context.Context, string, string) (*appmodel.Reply, error) {
		return nil, errors.New("down")
	}
	a, manager := newTestView(t, backend)

	manager.Submit(context.Background(), "Hello")
	msgs := manager.Messages()

	_, cmd := a.Update(appmodel.ExchangeSettledMsg{Reply: msgs[1], Err: errors.New("down")})
	if cmd != nil {
		t.Error("apology should not be rendered as markdown")
	}
}

func TestResetKey(t *testing.T) {
	backend := testutil.NewMockBackend("abc")
	a, manager := newTestView(t, backend)

	manager.Submit(context.Background(), "Hello")

	a.textarea.SetValue("draft")
	a, cmd := press(t, a, tea.KeyMsg{Type: tea.KeyCtrlR})
	done, ok := runUntil[appmodel.ResetDoneMsg](cmd)
	if !ok {
		t.Fatal("Ctrl+R did not reset")
	}
	if len(manager.Messages()) != 0 || manager.SessionID() != "" {
		t.Error("manager not reset")
	}
	if calls := backend.ResetCalls(); len(calls) != 1 || calls[0] != "abc" {
		t.Errorf("reset calls = %v", calls)
	}

	updated, _ := a.Update(done)
	a = updated.(AppView)
	if !a.textarea.Focused() {
		t.Error("input not focused after reset")
	}
	if a.textarea.Value() != "" {
		t.Errorf("input not cleared after reset: %q", a.textarea.Value())
	}
	if a.notice != "Conversation reset" {
		t.Errorf("notice = %q", a.notice)
	}
}

func TestCopyShortcuts(t *testing.T) {
	var copied string
	orig := clipboardWrite
	clipboardWrite = func(text string) error {
		copied = text
		return nil
	}
	defer func() { clipboardWrite = orig }()

	a, manager := newTestView(t, testutil.NewMockBackend("abc"))

	a, _ = press(t, a, altKey('y'))
	if copied != "" || a.notice != "Nothing to copy yet" {
		t.Errorf("copy on empty log: copied=%q notice=%q", copied, a.notice)
	}

	manager.Submit(context.Background(), "Hello")

	a, _ = press(t, a, altKey('y'))
	if copied != "Mock response" {
		t.Errorf("Alt+Y copied %q", copied)
	}

	a, _ = press(t, a, altKey('c'))
	if !strings.Contains(copied, "You:\nHello") || !strings.Contains(copied, "Assistant:\nMock response") {
		t.Errorf("Alt+C copied %q", copied)
	}
	if a.notice != "Copied conversation" {
		t.Errorf("notice = %q", a.notice)
	}
}

func TestLastReplySkipsApology(t *testing.T) {
	messages := []appmodel.Message{
		{Sender: appmodel.SenderUser, Text: "a"},
		{Sender: appmodel.SenderAssistant, Text: "real"},
		{Sender: appmodel.SenderUser, Text: "b"},
		{Sender: appmodel.SenderAssistant, Text: "sorry", IsError: true},
	}

	got, ok := lastReply(messages)
	if !ok || got.Text != "real" {
		t.Errorf("lastReply() = %+v, %v", got, ok)
	}

	if _, ok := lastReply(messages[:1]); ok {
		t.Error("lastReply() found a reply in a user-only log")
	}
}

func TestFormatConversation(t *testing.T) {
	got := formatConversation([]appmodel.Message{
		{Sender: appmodel.SenderUser, Text: "Hello", Timestamp: "3:04:05 PM"},
		{Sender: appmodel.SenderAssistant, Text: "Hi!", Timestamp: "3:04:06 PM"},
	})
	want := "[3:04:05 PM] You:\nHello\n\n[3:04:06 PM] Assistant:\nHi!\n"
	if got != want {
		t.Errorf("formatConversation() = %q, want %q", got, want)
	}
}

func TestMessageSearchJump(t *testing.T) {
	backend := testutil.NewMockBackend("abc")
	a, manager := newTestView(t, backend)

	manager.Submit(context.Background(), "first question")
	manager.Submit(context.Background(), "where is the lighthouse")

	a, _ = press(t, a, altKey('f'))
	if !a.showMessageSearch {
		t.Fatal("Alt+F did not open search")
	}

	for _, r := range "lighthouse" {
		a, _ = press(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if len(a.messageSearchResults) == 0 {
		t.Fatal("no search results")
	}
	if a.messageSearchResults[0].MessageIndex != 2 {
		t.Errorf("best match index = %d, want 2", a.messageSearchResults[0].MessageIndex)
	}

	a, _ = press(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.showMessageSearch {
		t.Error("search still open after Enter")
	}
	if a.highlightedMessageIdx != 2 {
		t.Errorf("highlighted = %d, want 2", a.highlightedMessageIdx)
	}
	if len(manager.Messages()) != 4 {
		t.Error("Enter in search submitted a message")
	}
}

func TestModalsToggle(t *testing.T) {
	a, _ := newTestView(t, testutil.NewMockBackend("abc"))

	a, _ = press(t, a, altKey('h'))
	if !a.showHelp || !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Error("Alt+H did not show help")
	}
	a, _ = press(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.showHelp {
		t.Error("Esc did not close help")
	}

	a, _ = press(t, a, altKey('a'))
	if !a.showAbout || !strings.Contains(a.View(), "chat1") {
		t.Error("Alt+A did not show about")
	}
}

func TestViewShowsInstanceAndSession(t *testing.T) {
	a, manager := newTestView(t, testutil.NewMockBackend("session-1234"))

	if !strings.Contains(a.View(), "chat1") || !strings.Contains(a.View(), "no session") {
		t.Errorf("title bar missing instance or session state:\n%s", a.View())
	}

	manager.Submit(context.Background(), "Hello")
	if !strings.Contains(a.View(), "session-1234") {
		t.Errorf("title bar missing session id:\n%s", a.View())
	}
}

func TestShortenSessionID(t *testing.T) {
	tests := []struct {
		id    string
		width int
		want  string
	}{
		{"", 10, "no session"},
		{"abc", 10, "abc"},
		{"0123456789abcdef", 8, "0123456…"},
	}

	for _, tt := range tests {
		if got := shortenSessionID(tt.id, tt.width); got != tt.want {
			t.Errorf("shortenSessionID(%q, %d) = %q, want %q", tt.id, tt.width, got, tt.want)
		}
	}
}

func TestMarkdownHelpers(t *testing.T) {
	if got := preprocessLinks("see [docs](https://example.com/a) now"); got != "see https://example.com/a now" {
		t.Errorf("preprocessLinks() = %q", got)
	}

	if got := fixInlineCode("\x1b[44;3mcode\x1b[0m"); got != "\x1b[31mcode\x1b[0m" {
		t.Errorf("fixInlineCode() = %q", got)
	}

	if got := stripCodeBlockPrefix("  ┃ x := 1"); got != "x := 1" {
		t.Errorf("stripCodeBlockPrefix() = %q", got)
	}

	framed := frameCodeBlocks("intro\n┃ a\n┃ b\noutro", 30)
	lines := strings.Split(framed, "\n")
	if lines[0] != "intro" || !strings.Contains(lines[2], "[code]") || lines[len(lines)-1] != "outro" {
		t.Errorf("frameCodeBlocks() = %q", framed)
	}
	if strings.Contains(framed, "┃") {
		t.Error("gutter not stripped")
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := renderMarkdown("Some **bold** text", 80)
	if !strings.Contains(out, "bold") {
		t.Errorf("renderMarkdown() lost content: %q", out)
	}
}
