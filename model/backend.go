package model

import (
	"context"
	"time"
)

// Backend is the remote chat service a Manager talks to.
//
// This interface is defined in the model package (not chatapi) so the HTTP
// client can import model without creating a cycle.
type Backend interface {
	// Chat sends one user message. sessionID is empty on the first exchange.
	Chat(ctx context.Context, message, sessionID string) (*Reply, error)

	// ResetSession ends the server-side conversation for sessionID.
	ResetSession(ctx context.Context, sessionID string) error
}

// Reply is a successful response to Chat.
type Reply struct {
	Text      string
	SessionID string
	// Timestamp is the server's clock; zero when the service sent none.
	Timestamp time.Time
}
