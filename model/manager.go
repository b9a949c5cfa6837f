package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chatline/config"
	"chatline/storage"
)

// ErrNoReply is reported when the service answered without any text.
var ErrNoReply = errors.New("service returned an empty reply")

// Options configures a Manager. Zero values fall back to the defaults in
// the config package.
type Options struct {
	Namespace string
	Store     storage.StateStore
	Backend   Backend

	// RequestTimeout bounds one exchange; 0 waits forever.
	RequestTimeout time.Duration
	// ResetTimeout bounds the remote reset call. Zero or negative means
	// config.DefaultResetTimeout; the remote call is never unbounded.
	ResetTimeout time.Duration

	TimeFormat string
	ErrorText  string

	// DiscardStaleReplies drops replies to exchanges started before the
	// most recent Reset. Off by default: a late reply lands in the cleared log.
	DiscardStaleReplies bool

	// Now is the client clock. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig maps loaded settings onto Manager options.
func OptionsFromConfig(cfg *config.Config, store storage.StateStore, backend Backend) Options {
	return Options{
		Namespace:           cfg.Instance,
		Store:               store,
		Backend:             backend,
		RequestTimeout:      cfg.RequestTimeout,
		ResetTimeout:        cfg.ResetTimeout,
		TimeFormat:          cfg.TimeFormat,
		ErrorText:           cfg.ErrorText,
		DiscardStaleReplies: cfg.DiscardStaleReplies,
	}
}

// Manager owns the conversation of one chat instance: the message log, the
// session id, the pending flag and their durable copy under the instance
// namespace. All methods are safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	namespace string
	store     storage.StateStore
	backend   Backend
	opts      Options

	messages   []Message
	sessionID  string
	pending    bool
	generation uint64
	focusInput bool
}

// Exchange is one submitted message awaiting its reply.
type Exchange struct {
	Message   Message // The optimistically appended user message
	SessionID string  // Session id held when the exchange started

	generation uint64
}

// NewManager creates a Manager and restores any persisted state for the
// namespace. Restoring never fails: absent or malformed state yields an
// empty conversation.
func NewManager(opts Options) (*Manager, error) {
	if err := storage.ValidateNamespace(opts.Namespace); err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("manager requires a state store")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("manager requires a backend")
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = config.DefaultTimeFormat
	}
	if opts.ErrorText == "" {
		opts.ErrorText = config.DefaultErrorText
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ResetTimeout <= 0 {
		opts.ResetTimeout = config.DefaultResetTimeout
	}

	m := &Manager{
		namespace: opts.Namespace,
		store:     opts.Store,
		backend:   opts.Backend,
		opts:      opts,
	}
	m.restore()

	return m, nil
}

func (m *Manager) restore() {
	log := config.DebugLog.With().Str("instance", m.namespace).Logger()

	stored, err := m.store.LoadMessages(m.namespace)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		stored = nil
	case err != nil:
		log.Warn().Err(err).Msg("discarding unreadable conversation state")
		return
	}

	sessionID, err := m.store.LoadSessionID(m.namespace)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		sessionID = ""
	case err != nil:
		log.Warn().Err(err).Msg("discarding unreadable conversation state")
		return
	}

	messages := make([]Message, 0, len(stored))
	for _, s := range stored {
		messages = append(messages, fromStored(s))
	}

	m.messages = messages
	m.sessionID = sessionID

	log.Debug().
		Int("messages", len(messages)).
		Bool("has_session", sessionID != "").
		Msg("restored conversation")
}

// Namespace returns the instance namespace the manager persists under.
func (m *Manager) Namespace() string {
	return m.namespace
}

// Begin performs the local half of a submit: it appends the trimmed text as
// a user message and marks the exchange pending. It returns false, changing
// nothing, when the text is blank or another exchange is pending.
func (m *Manager) Begin(text string) (*Exchange, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending {
		return nil, false
	}

	msg := m.newMessageLocked(SenderUser, text, m.opts.Now(), false)
	m.messages = append(m.messages, msg)
	m.pending = true
	m.persistMessagesLocked()

	return &Exchange{
		Message:    msg,
		SessionID:  m.sessionID,
		generation: m.generation,
	}, true
}

// Send performs the remote call for ex under the request timeout. It does
// not touch manager state.
func (m *Manager) Send(ctx context.Context, ex *Exchange) (*Reply, error) {
	if m.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.RequestTimeout)
		defer cancel()
	}

	reply, err := m.backend.Chat(ctx, ex.Message.Text, ex.SessionID)
	if err != nil {
		return nil, err
	}
	if reply == nil || strings.TrimSpace(reply.Text) == "" {
		return nil, ErrNoReply
	}
	return reply, nil
}

// Settle completes ex with the outcome of Send. A failure becomes the
// apology message. Pending is cleared in every case. The returned bool is
// false when the reply was dropped as stale.
func (m *Manager) Settle(ex *Exchange, reply *Reply, err error) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	defer func() { m.pending = false }()

	log := config.DebugLog.With().Str("instance", m.namespace).Logger()

	if ex.generation != m.generation && m.opts.DiscardStaleReplies {
		log.Debug().Msg("dropping reply to an exchange started before reset")
		return Message{}, false
	}

	if err == nil && (reply == nil || strings.TrimSpace(reply.Text) == "") {
		err = ErrNoReply
	}

	var msg Message
	if err != nil {
		log.Warn().Err(err).Msg("exchange failed")
		msg = m.newMessageLocked(SenderAssistant, m.opts.ErrorText, m.opts.Now(), true)
	} else {
		// Only an exchange that started without a session may adopt one, so
		// a late reply never restores a session that Reset just ended.
		if ex.SessionID == "" && m.sessionID == "" && reply.SessionID != "" {
			m.sessionID = reply.SessionID
			if err := m.store.SaveSessionID(m.namespace, m.sessionID); err != nil {
				log.Error().Err(err).Msg("failed to persist session id")
			}
		}

		at := reply.Timestamp
		if at.IsZero() {
			at = m.opts.Now()
		}
		msg = m.newMessageLocked(SenderAssistant, reply.Text, at, false)
	}

	m.messages = append(m.messages, msg)
	m.persistMessagesLocked()

	return msg, true
}

// Submit runs a whole exchange synchronously. It returns false without
// doing anything when Begin would.
func (m *Manager) Submit(ctx context.Context, text string) (Message, bool) {
	ex, ok := m.Begin(text)
	if !ok {
		return Message{}, false
	}

	reply, err := m.Send(ctx, ex)
	msg, _ := m.Settle(ex, reply, err)
	return msg, true
}

// Reset ends the conversation. The remote reset is best effort: its error
// is logged and discarded. Local state is always cleared and erased. An
// exchange in flight is not cancelled.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	sessionID := m.sessionID
	m.mu.Unlock()

	log := config.DebugLog.With().Str("instance", m.namespace).Logger()

	if sessionID != "" {
		resetCtx, cancel := context.WithTimeout(ctx, m.opts.ResetTimeout)
		defer cancel()
		if err := m.backend.ResetSession(resetCtx, sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("remote reset failed, clearing locally")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = nil
	m.sessionID = ""
	m.generation++
	m.focusInput = true

	if err := m.store.Erase(m.namespace); err != nil {
		log.Error().Err(err).Msg("failed to erase conversation state")
	}

	log.Debug().Uint64("generation", m.generation).Msg("conversation reset")
}

// Messages returns a copy of the log in causal order.
func (m *Manager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// SessionID returns the held session id, or "" before the first
// successful exchange and after a reset.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Pending reports whether an exchange is in flight.
func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// State returns Idle or Active; Pending is reported separately.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Snapshot returns namespace, state, pending flag, session id and log
// read under one lock.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Namespace: m.namespace,
		State:     m.stateLocked(),
		Pending:   m.pending,
		SessionID: m.sessionID,
		Messages:  append([]Message(nil), m.messages...),
	}
}

// ConsumeFocusRequest reports whether a reset asked for input focus since
// the last call.
func (m *Manager) ConsumeFocusRequest() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	focus := m.focusInput
	m.focusInput = false
	return focus
}

func (m *Manager) stateLocked() State {
	if m.sessionID == "" && len(m.messages) == 0 {
		return Idle
	}
	return Active
}

func (m *Manager) newMessageLocked(sender, text string, at time.Time, isError bool) Message {
	return Message{
		ID:        newMessageID(),
		Text:      text,
		Sender:    sender,
		Timestamp: at.Local().Format(m.opts.TimeFormat),
		At:        at,
		IsError:   isError,
	}
}

// persistMessagesLocked writes the full log. Failures are logged only.
func (m *Manager) persistMessagesLocked() {
	if len(m.messages) == 0 {
		return
	}
	if err := m.store.SaveMessages(m.namespace, toStoredMessages(m.messages)); err != nil {
		config.DebugLog.Error().Err(err).Str("instance", m.namespace).Msg("failed to persist messages")
	}
}
