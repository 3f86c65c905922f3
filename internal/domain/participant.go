// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxDisplayNameLen = 64

var (
	ErrParticipantIDEmpty = errors.New("participant id empty")
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrUnknownRole        = errors.New("unknown role")
)

type ParticipantID string

// Role is the closed set of participation roles within a session.
type Role string

const (
	RoleHost     Role = "host"
	RoleMember   Role = "member"
	RoleObserver Role = "observer"
)

// ParseRole validates a caller-supplied role string. An empty string
// defaults to member, matching the join payload's optional role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleHost, RoleMember, RoleObserver:
		return Role(s), nil
	case "":
		return RoleMember, nil
	default:
		return "", ErrUnknownRole
	}
}

// Participant is a named identity inside one session, distinct from the
// network connection carrying it. Identity is caller-supplied and only
// checked for shape, not authenticated.
type Participant struct {
	ID          ParticipantID `json:"id"`
	DisplayName string        `json:"name"`
	Avatar      string        `json:"avatar,omitempty"`
	Role        Role          `json:"role"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(id, name, avatar string, role Role) (*Participant, error) {
	if id == "" {
		return nil, ErrParticipantIDEmpty
	}
	if name == "" {
		return nil, ErrDisplayNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}
	if role == "" {
		role = RoleMember
	}
	return &Participant{ID: ParticipantID(id), DisplayName: name, Avatar: avatar, Role: role}, nil
}
