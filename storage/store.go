package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

var (
	// ErrNotFound means the namespace has no entry of the requested kind.
	ErrNotFound = errors.New("no stored state")
	// ErrCorrupt means an entry exists but cannot be decoded or fails validation.
	ErrCorrupt = errors.New("stored state is malformed")
)

// Message is the persisted form of a conversation message. The JSON shape
// (id, text, sender, timestamp, isError) is the one the web widget kept in
// local storage.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp string    `json:"timestamp"`
	IsError   bool      `json:"isError,omitempty"`
	At        time.Time `json:"at"`
}

// StateStore keeps two entries per namespace: the full message sequence and
// the session identifier. Entries of different namespaces never collide.
type StateStore interface {
	LoadMessages(namespace string) ([]Message, error)
	SaveMessages(namespace string, messages []Message) error
	LoadSessionID(namespace string) (string, error)
	SaveSessionID(namespace, sessionID string) error
	// Erase removes both entries. Erasing an empty namespace is not an error.
	Erase(namespace string) error
	Namespaces() ([]string, error)
	Close() error
}

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ValidateNamespace accepts names that map one-to-one onto file names and
// table keys, so two different namespaces can never share an entry.
func ValidateNamespace(namespace string) error {
	if !namespacePattern.MatchString(namespace) {
		return fmt.Errorf("invalid instance name %q: use letters, digits, '.', '_' or '-' (max 64, must start with a letter or digit)", namespace)
	}
	return nil
}

// Open returns the store for backend rooted at dataDir.
func Open(backend, dataDir string) (StateStore, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(dataDir)
	case BackendSQLite:
		return NewSQLiteStore(dataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

func encodeMessages(messages []Message) ([]byte, error) {
	if messages == nil {
		messages = []Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}
	return data, nil
}

func decodeMessages(data []byte) ([]Message, error) {
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if messages == nil {
		return nil, fmt.Errorf("%w: null message list", ErrCorrupt)
	}

	for i, msg := range messages {
		if msg.ID == "" || msg.Text == "" {
			return nil, fmt.Errorf("%w: message %d is missing id or text", ErrCorrupt, i)
		}
		if msg.Sender != SenderUser && msg.Sender != SenderAssistant {
			return nil, fmt.Errorf("%w: message %d has unknown sender %q", ErrCorrupt, i, msg.Sender)
		}
	}

	return messages, nil
}
