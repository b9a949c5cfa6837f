package model

// State is the conversation lifecycle of one instance. Pending is tracked
// separately since an exchange can be in flight in either state.
type State int

const (
	// Idle: no session yet and an empty log.
	Idle State = iota
	// Active: a session id is held or at least one message exists.
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of an instance's conversation state.
type Snapshot struct {
	Namespace string
	State     State
	Pending   bool
	SessionID string
	Messages  []Message
}
