package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"chatline/config"
	appmodel "chatline/model"
)

// Pre-compiled regex patterns for better performance
var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s]+)`)
)

const codeBlockBar = "┃"

func (a *AppView) updateViewportContent(gotoBottom bool) {
	snap := a.manager.Snapshot()

	a.messageLineOffsets = a.messageLineOffsets[:0]

	if len(snap.Messages) == 0 && !snap.Pending {
		a.viewport.SetContent(DimStyle.Render("No messages yet. Start chatting!"))
		return
	}

	var content strings.Builder
	lines := 0

	for i, msg := range snap.Messages {
		a.messageLineOffsets = append(a.messageLineOffsets, lines)

		highlightPrefix := ""
		if i == a.highlightedMessageIdx {
			highlightPrefix = HighlightStyle.Render(">>> ")
		}

		timestamp := DimStyle.Render("[" + msg.Timestamp + "]")

		var block string
		switch {
		case msg.Sender == appmodel.SenderUser:
			block = formatUserMessage(highlightPrefix, timestamp, UserStyle.Render("You"), msg.Text)
		case msg.IsError:
			block = fmt.Sprintf("%s%s %s\n%s\n\n", highlightPrefix, timestamp, ErrorStyle.Render("Assistant"), ErrorStyle.Render(msg.Text))
		default:
			body := msg.Text
			if rendered, ok := a.rendered[msg.ID]; ok {
				body = rendered
			}
			block = fmt.Sprintf("%s%s %s\n%s\n\n", highlightPrefix, timestamp, AssistantStyle.Render("Assistant"), body)
		}

		content.WriteString(block)
		lines += strings.Count(block, "\n")
	}

	if snap.Pending {
		role := AssistantStyle.Render("Assistant")
		content.WriteString(fmt.Sprintf("%s\n%s Waiting for response...\n", role, a.loadingSpinner.View()))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// scrollToMessage puts message idx at the top of the viewport.
func (a *AppView) scrollToMessage(idx int) {
	if idx < 0 || idx >= len(a.messageLineOffsets) {
		return
	}
	a.viewport.SetYOffset(a.messageLineOffsets[idx])
}

func formatUserMessage(highlightPrefix, timestamp, role, content string) string {
	bar := UserStyle.Render(codeBlockBar)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s%s %s %s\n", highlightPrefix, bar, timestamp, role))

	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}

	result.WriteString("\n")

	return result.String()
}

// renderAllMarkdown queues a render for every assistant reply not yet cached.
func (a AppView) renderAllMarkdown() tea.Cmd {
	var cmds []tea.Cmd
	messages := a.manager.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Sender != appmodel.SenderAssistant || msg.IsError {
			continue
		}
		if _, ok := a.rendered[msg.ID]; ok {
			continue
		}
		cmds = append(cmds, a.renderMarkdownAsync(msg.ID, msg.Text))
	}
	return tea.Batch(cmds...)
}

func (a AppView) renderMarkdownAsync(messageID, content string) tea.Cmd {
	width := a.width
	return func() tea.Msg {
		start := time.Now()
		rendered := renderMarkdown(content, width)
		logRenderTiming(messageID, len(content), start)

		return markdownRenderedMsg{
			MessageID: messageID,
			Rendered:  rendered,
		}
	}
}

func renderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}

	// Plain URLs stay plain so the terminal can make them clickable
	content = preprocessLinks(content)

	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width-4, 0)
	doc := p.Parse([]byte(content))
	rendered := gomarkdown.Render(doc, r)

	return postProcessMarkdown(strings.TrimRight(string(rendered), "\n"), width)
}

func postProcessMarkdown(rendered string, width int) string {
	rendered = fixInlineCode(rendered)
	rendered = colorURLs(rendered)
	return frameCodeBlocks(rendered, width)
}

// preprocessLinks turns [text](url) into url.
func preprocessLinks(content string) string {
	return mdLinkRegex.ReplaceAllString(content, "$2")
}

// fixInlineCode swaps the renderer's blue-background inline code for red text.
func fixInlineCode(s string) string {
	return inlineCodeRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		// Code block lines keep their own highlighting
		if !strings.Contains(line, codeBlockBar) {
			lines[i] = urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
		}
	}
	return strings.Join(lines, "\n")
}

// frameCodeBlocks replaces the renderer's ┃ gutter with dark gray rules
// above and below each code block.
func frameCodeBlocks(s string, width int) string {
	const darkGray = "\x1b[90m"
	const reset = "\x1b[0m"

	ruleWidth := width - 4
	if ruleWidth < 10 {
		ruleWidth = 10
	}

	topRule := func() string {
		label := "[code]"
		left := (ruleWidth - len(label)) / 2
		right := ruleWidth - len(label) - left
		return darkGray + strings.Repeat("━", left) + reset + label + darkGray + strings.Repeat("━", right) + reset
	}
	bottomRule := darkGray + strings.Repeat("━", ruleWidth) + reset

	var result []string
	inCodeBlock := false

	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, codeBlockBar) {
			if !inCodeBlock {
				inCodeBlock = true
				result = append(result, "", topRule(), "")
			}
			result = append(result, stripCodeBlockPrefix(line))
			continue
		}
		if inCodeBlock {
			result = append(result, "", bottomRule, "")
			inCodeBlock = false
		}
		result = append(result, line)
	}

	if inCodeBlock {
		result = append(result, "", bottomRule, "")
	}

	return strings.Join(result, "\n")
}

func stripCodeBlockPrefix(line string) string {
	idx := strings.Index(line, codeBlockBar)
	if idx < 0 {
		return line
	}
	after := idx + len(codeBlockBar)
	if after < len(line) && line[after] == ' ' {
		after++
	}
	return line[after:]
}

func logRenderTiming(messageID string, length int, start time.Time) {
	config.DebugLog.Debug().
		Str("message_id", messageID).
		Int("length", length).
		Dur("elapsed", time.Since(start)).
		Msg("markdown rendered")
}
