package ui

import (
	"chatline/model"
)

type exchangeSettledMsg = model.ExchangeSettledMsg
type resetDoneMsg = model.ResetDoneMsg
type markdownRenderedMsg = model.MarkdownRenderedMsg

type clearNoticeMsg struct {
	seq int
}
