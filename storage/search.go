package storage

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

const previewWidth = 100

// MessageMatch represents a search result within a conversation
type MessageMatch struct {
	MessageIndex   int
	Sender         string
	Text           string
	Preview        string
	Timestamp      string
	Score          int
	MatchedIndexes []int
}

type messageSource []Message

func (s messageSource) String(i int) string { return s[i].Text }
func (s messageSource) Len() int            { return len(s) }

// SearchMessages fuzzy-matches query against message text, best match first.
// Error replies are skipped: they carry no conversation content.
func SearchMessages(messages []Message, query string) []MessageMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return []MessageMatch{}
	}

	var candidates messageSource
	var indexes []int
	for i, msg := range messages {
		if msg.IsError {
			continue
		}
		candidates = append(candidates, msg)
		indexes = append(indexes, i)
	}

	results := fuzzy.FindFrom(query, candidates)

	matches := make([]MessageMatch, 0, len(results))
	for _, r := range results {
		msg := candidates[r.Index]
		matches = append(matches, MessageMatch{
			MessageIndex:   indexes[r.Index],
			Sender:         msg.Sender,
			Text:           msg.Text,
			Preview:        Preview(msg.Text, previewWidth),
			Timestamp:      msg.Timestamp,
			Score:          r.Score,
			MatchedIndexes: r.MatchedIndexes,
		})
	}

	return matches
}

// Preview flattens text to one line and truncates it to width display cells.
func Preview(text string, width int) string {
	flat := strings.Join(strings.Fields(text), " ")
	return runewidth.Truncate(flat, width, "...")
}
