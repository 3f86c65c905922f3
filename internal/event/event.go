// Package event defines the wire contract of the collaboration engine:
// the closed set of inbound event kinds, their payloads, and the
// outbound events fanned out to connections. Events are not persisted;
// they exist only for the duration of their fan-out.
package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/codepals/collab/internal/domain"
)

// Kind enumerates the inbound event types. The set is closed: the
// router matches it exhaustively and drops anything else.
type Kind string

const (
	KindJoinSession     Kind = "join-session"
	KindLeaveSession    Kind = "leave-session"
	KindCodeChange      Kind = "code-change"
	KindLanguageChange  Kind = "language-change"
	KindChatMessage     Kind = "chat-message"
	KindCursorPosition  Kind = "cursor-position"
	KindSelectionChange Kind = "selection-change"
	KindAIHelpRequest   Kind = "ai-help-request"
	KindInviteUser      Kind = "invite-user"
)

var (
	ErrBadEnvelope    = errors.New("bad event envelope")
	ErrMissingSession = errors.New("missing sessionId")
)

var validate = validator.New()

// Envelope carries the discriminator; payloads are decoded separately
// by kind.
type Envelope struct {
	Type Kind `json:"type"`
}

func DecodeEnvelope(data []byte) (Kind, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	return env.Type, nil
}

// decode unmarshals and validates one payload. A missing sessionId is
// reported as ErrMissingSession so the router can log it distinctly.
func decode(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "SessionID" {
					return ErrMissingSession
				}
			}
		}
		return fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	return nil
}

type JoinSession struct {
	SessionID   string `json:"sessionId" validate:"required"`
	Participant struct {
		ID     string `json:"id" validate:"required"`
		Name   string `json:"name" validate:"required"`
		Avatar string `json:"avatar"`
		Role   string `json:"role"`
	} `json:"user" validate:"required"`
	IsAISession bool `json:"isAiSession"`
}

func DecodeJoinSession(data []byte) (*JoinSession, error) {
	var p JoinSession
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type LeaveSession struct {
	SessionID string `json:"sessionId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
}

func DecodeLeaveSession(data []byte) (*LeaveSession, error) {
	var p LeaveSession
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type CodeChange struct {
	SessionID string `json:"sessionId" validate:"required"`
	Code      string `json:"code"`
	Language  string `json:"language"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

func DecodeCodeChange(data []byte) (*CodeChange, error) {
	var p CodeChange
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type LanguageChange struct {
	SessionID string `json:"sessionId" validate:"required"`
	Language  string `json:"language" validate:"required"`
	UserID    string `json:"userId"`
}

func DecodeLanguageChange(data []byte) (*LanguageChange, error) {
	var p LanguageChange
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type ChatMessage struct {
	SessionID   string `json:"sessionId" validate:"required"`
	Content     string `json:"content"`
	UserID      string `json:"userId"`
	MessageType string `json:"messageType" validate:"omitempty,oneof=text code system"`
	Timestamp   string `json:"timestamp"`
}

func DecodeChatMessage(data []byte) (*ChatMessage, error) {
	var p ChatMessage
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	if p.MessageType == "" {
		p.MessageType = "text"
	}
	return &p, nil
}

type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type CursorPosition struct {
	SessionID string   `json:"sessionId" validate:"required"`
	UserID    string   `json:"userId"`
	Position  Position `json:"position"`
}

func DecodeCursorPosition(data []byte) (*CursorPosition, error) {
	var p CursorPosition
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type Selection struct {
	StartLine int `json:"startLineNumber"`
	StartCol  int `json:"startColumn"`
	EndLine   int `json:"endLineNumber"`
	EndCol    int `json:"endColumn"`
}

type SelectionChange struct {
	SessionID string    `json:"sessionId" validate:"required"`
	UserID    string    `json:"userId"`
	Selection Selection `json:"selection"`
}

func DecodeSelectionChange(data []byte) (*SelectionChange, error) {
	var p SelectionChange
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type AIHelpRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	Code      string `json:"code"`
	Language  string `json:"language"`
	Question  string `json:"question,omitempty"`
}

func DecodeAIHelpRequest(data []byte) (*AIHelpRequest, error) {
	var p AIHelpRequest
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type InviteUser struct {
	SessionID     string `json:"sessionId" validate:"required"`
	InvitedUserID string `json:"invitedUserId"`
	InviterName   string `json:"inviterName"`
}

func DecodeInviteUser(data []byte) (*InviteUser, error) {
	var p InviteUser
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ToParticipant converts the join payload's user block into a domain
// participant, applying the closed-set role parse.
func (j *JoinSession) ToParticipant() (*domain.Participant, error) {
	role, err := domain.ParseRole(j.Participant.Role)
	if err != nil {
		return nil, err
	}
	return domain.NewParticipant(j.Participant.ID, j.Participant.Name, j.Participant.Avatar, role)
}
