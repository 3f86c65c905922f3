package domain

import "time"

type SessionID string

// Session is the meta of one collaboration session. Membership and
// transport state live in core; this carries identity only.
type Session struct {
	ID          SessionID
	IsAISession bool
	CreatedAt   time.Time
}

func NewSession(id SessionID, isAI bool) *Session {
	return &Session{ID: id, IsAISession: isAI, CreatedAt: time.Now()}
}
