package core

import "github.com/codepals/collab/internal/domain"

// Frame is one marshaled wire event.
type Frame []byte

// ConnID identifies a single transport connection.
type ConnID string

// Conn abstracts an outbound delivery endpoint.
// Owned by the adapter; the adapter must Close() it.
// TrySend must never block: a full queue returns an error instead.
type Conn interface {
	ID() ConnID
	TrySend(Frame) error
	Close()
}

// Visibility selects whether the originator receives its own event.
type Visibility int

const (
	// ExcludeSender delivers to everyone in the room except the
	// originating connection. Code edits must not echo back into the
	// author's own editor.
	ExcludeSender Visibility = iota
	// IncludeSender delivers to every connection, originator included.
	// Chat, language switches and AI-help notifications appear in the
	// initiator's own view as confirmation.
	IncludeSender
)

// PublishResult reports delivery stats/backpressure to the router.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}

// SessionInfo is a read-only view for APIs (no transport fields).
type SessionInfo struct {
	ID               domain.SessionID `json:"id"`
	IsAISession      bool             `json:"isAiSession"`
	ParticipantCount int              `json:"participantCount"`
	ConnectionCount  int              `json:"connectionCount"`
}
