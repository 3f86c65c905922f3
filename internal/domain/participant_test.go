package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"host", "member", "observer"} {
		role, err := ParseRole(valid)
		require.NoError(t, err)
		require.Equal(t, Role(valid), role)
	}

	role, err := ParseRole("")
	require.NoError(t, err)
	require.Equal(t, RoleMember, role)

	_, err = ParseRole("admin")
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestNewParticipant(t *testing.T) {
	p, err := NewParticipant("p1", "Alice", "a.png", RoleHost)
	require.NoError(t, err)
	require.Equal(t, ParticipantID("p1"), p.ID)
	require.Equal(t, RoleHost, p.Role)

	_, err = NewParticipant("", "Alice", "", RoleHost)
	require.ErrorIs(t, err, ErrParticipantIDEmpty)

	_, err = NewParticipant("p1", "", "", RoleHost)
	require.ErrorIs(t, err, ErrDisplayNameEmpty)

	_, err = NewParticipant("p1", strings.Repeat("x", MaxDisplayNameLen+1), "", RoleHost)
	require.ErrorIs(t, err, ErrDisplayNameTooLong)
}

func TestNewParticipantDefaultsEmptyRole(t *testing.T) {
	p, err := NewParticipant("p1", "Alice", "", "")
	require.NoError(t, err)
	require.Equal(t, RoleMember, p.Role)
}
