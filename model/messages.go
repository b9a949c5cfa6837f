package model

// ExchangeSettledMsg is sent when a submitted exchange completes.
// Reply is the appended assistant message; Err is the swallowed transport
// error, kept for logging only.
type ExchangeSettledMsg struct {
	Reply     Message
	Err       error
	Discarded bool
}

// ResetDoneMsg is sent when Reset has cleared the conversation.
type ResetDoneMsg struct{}

type MarkdownRenderedMsg struct {
	MessageID string
	Rendered  string
}
