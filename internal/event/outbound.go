package event

import (
	"encoding/json"
	"time"

	"github.com/codepals/collab/internal/domain"
)

// Outbound event names, matching what clients subscribe to.
const (
	OutSessionJoined   = "session-joined"
	OutUserJoined      = "user-joined"
	OutUserLeft        = "user-left"
	OutCodeChanged     = "code-changed"
	OutLanguageChanged = "language-changed"
	OutChatMessage     = "chat-message-received"
	OutCursorMoved     = "cursor-moved"
	OutSelectionChange = "selection-changed"
	OutAIHelpRequested = "ai-help-requested"
	OutSessionInvite   = "session-invite"
	OutMessage         = "message"
)

type SessionJoined struct {
	Type         string               `json:"type"`
	SessionID    string               `json:"sessionId"`
	Participants []domain.Participant `json:"participants"`
	IsAISession  bool                 `json:"isAiSession"`
}

type UserJoined struct {
	Type         string               `json:"type"`
	User         domain.Participant   `json:"user"`
	Participants []domain.Participant `json:"participants"`
}

type UserLeft struct {
	Type         string               `json:"type"`
	UserID       string               `json:"userId"`
	Participants []domain.Participant `json:"participants"`
}

type CodeChanged struct {
	Type      string `json:"type"`
	Code      string `json:"code"`
	Language  string `json:"language"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

type LanguageChanged struct {
	Type     string `json:"type"`
	Language string `json:"language"`
	UserID   string `json:"userId"`
}

type ChatMessageReceived struct {
	Type        string `json:"type"`
	Content     string `json:"content"`
	UserID      string `json:"userId"`
	MessageType string `json:"messageType"`
	Timestamp   string `json:"timestamp"`
}

type CursorMoved struct {
	Type     string   `json:"type"`
	UserID   string   `json:"userId"`
	Position Position `json:"position"`
}

type SelectionChanged struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Selection Selection `json:"selection"`
}

type AIHelpRequested struct {
	Type      string `json:"type"`
	Code      string `json:"code"`
	Language  string `json:"language"`
	Question  string `json:"question,omitempty"`
	Timestamp string `json:"timestamp"`
}

type SessionInvite struct {
	Type        string `json:"type"`
	SessionID   string `json:"sessionId"`
	InviterName string `json:"inviterName"`
	Timestamp   string `json:"timestamp"`
}

// Message is the synthetic welcome sent to a connection before it has
// joined any session. A liveness signal only, no session semantics.
type Message struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	SenderID  string `json:"senderId"`
	Timestamp string `json:"timestamp"`
}

func NewWelcome() Message {
	return Message{
		Type:      OutMessage,
		Text:      "Welcome to CodePals Real-time Collaboration!",
		SenderID:  "system",
		Timestamp: Now(),
	}
}

// Now formats timestamps the way the clients expect (RFC 3339 UTC).
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Marshal encodes an outbound event. Outbound structs contain only
// marshalable fields, so failure indicates a programming error and is
// reported to the caller for logging rather than panicking.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
