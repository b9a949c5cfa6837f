package model

import (
	"time"

	"github.com/google/uuid"

	"chatline/storage"
)

const (
	SenderUser      = storage.SenderUser
	SenderAssistant = storage.SenderAssistant
)

// Message represents one entry in the conversation log
type Message struct {
	ID        string
	Text      string
	Sender    string
	Timestamp string    // Rendered with the configured time format
	At        time.Time // Client clock for user messages, server clock for replies
	IsError   bool      // Locally synthesized failure reply
}

// newMessageID returns a time-ordered id so later messages sort after earlier ones.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (m Message) toStored() storage.Message {
	return storage.Message{
		ID:        m.ID,
		Text:      m.Text,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		IsError:   m.IsError,
		At:        m.At,
	}
}

func fromStored(s storage.Message) Message {
	return Message{
		ID:        s.ID,
		Text:      s.Text,
		Sender:    s.Sender,
		Timestamp: s.Timestamp,
		IsError:   s.IsError,
		At:        s.At,
	}
}

func toStoredMessages(messages []Message) []storage.Message {
	stored := make([]storage.Message, len(messages))
	for i, msg := range messages {
		stored[i] = msg.toStored()
	}
	return stored
}

// ToStorage converts a log snapshot to its persisted form, for exports.
func ToStorage(messages []Message) []storage.Message {
	return toStoredMessages(messages)
}
