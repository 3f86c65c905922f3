package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codepals/collab/internal/domain"
)

type fakeConn struct {
	id ConnID

	mu     sync.Mutex
	frames []Frame
	full   bool
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: ConnID(id)}
}

func (f *fakeConn) ID() ConnID { return f.id }

func (f *fakeConn) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return errors.New("backpressure")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func mustParticipant(t *testing.T, id, name string, role domain.Role) *domain.Participant {
	t.Helper()
	p, err := domain.NewParticipant(id, name, "", role)
	require.NoError(t, err)
	return p
}

func TestRoomJoinReturnsRoster(t *testing.T) {
	room := NewRoom(domain.NewSession("s1", false))

	roster := room.Join(mustParticipant(t, "p1", "Alice", domain.RoleHost), newFakeConn("c1"))
	require.Len(t, roster, 1)
	require.Equal(t, domain.ParticipantID("p1"), roster[0].ID)

	roster = room.Join(mustParticipant(t, "p2", "Bob", domain.RoleMember), newFakeConn("c2"))
	require.Len(t, roster, 2)
	require.Equal(t, 2, room.ConnCount())
}

func TestRoomRejoinOverwritesParticipant(t *testing.T) {
	room := NewRoom(domain.NewSession("s1", false))
	room.Join(mustParticipant(t, "p1", "Alice", domain.RoleHost), newFakeConn("c1"))
	roster := room.Join(mustParticipant(t, "p1", "Alicia", domain.RoleHost), newFakeConn("c2"))

	require.Len(t, roster, 1)
	require.Equal(t, "Alicia", roster[0].DisplayName)
	require.Equal(t, 2, room.ConnCount())
}

func TestRoomLeaveRemovesParticipantWithLastConnection(t *testing.T) {
	room := NewRoom(domain.NewSession("s1", false))
	room.Join(mustParticipant(t, "p1", "Alice", domain.RoleHost), newFakeConn("c1"))
	room.Join(mustParticipant(t, "p1", "Alice", domain.RoleHost), newFakeConn("c2"))

	roster := room.Leave("p1", "c1")
	require.Len(t, roster, 1, "participant keeps its other connection")

	roster = room.Leave("p1", "c2")
	require.Empty(t, roster)
	require.Equal(t, 0, room.ConnCount())
}

func TestRoomLeaveUnknownIsNoop(t *testing.T) {
	room := NewRoom(domain.NewSession("s1", false))
	roster := room.Leave("ghost", "nope")
	require.Empty(t, roster)
}

func TestRoomParticipantOfTracksJoinBinding(t *testing.T) {
	room := NewRoom(domain.NewSession("s1", false))
	room.Join(mustParticipant(t, "p1", "Alice", domain.RoleHost), newFakeConn("c1"))
	room.Join(mustParticipant(t, "p2", "Bob", domain.RoleMember), newFakeConn("c2"))

	pid, ok := room.ParticipantOf("c2")
	require.True(t, ok)
	require.Equal(t, domain.ParticipantID("p2"), pid)

	room.Leave(pid, "c2")
	_, ok = room.ParticipantOf("c2")
	require.False(t, ok)
}

func TestRoomBroadcastExcludeSender(t *testing.T) {
	room := NewRoom(domain.NewSession("s1", false))
	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")
	c3 := newFakeConn("c3")
	room.Join(mustParticipant(t, "p1", "Alice", domain.RoleHost), c1)
	room.Join(mustParticipant(t, "p2", "Bob", domain.RoleMember), c2)
	room.Join(mustParticipant(t, "p3", "Eve", domain.RoleObserver), c3)

	res := room.Broadcast("c1", Frame(`{"type":"code-changed"}`), ExcludeSender)
	require.Equal(t, 2, res.SentTo)
	require.Empty(t, res.Dropped)
	require.Equal(t, 0, c1.received(), "originator must not see its own code change")
	require.Equal(t, 1, c2.received())
	require.Equal(t, 1, c3.received())
}

func TestRoomBroadcastIncludeSender(t *testing.T) {
	room := NewRoom(domain.NewSession("s1", false))
	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")
	room.Join(mustParticipant(t, "p1", "Alice", domain.RoleHost), c1)
	room.Join(mustParticipant(t, "p2", "Bob", domain.RoleMember), c2)

	res := room.Broadcast("c1", Frame(`{"type":"chat-message-received"}`), IncludeSender)
	require.Equal(t, 2, res.SentTo)
	require.Equal(t, 1, c1.received(), "chat echoes back to the sender")
	require.Equal(t, 1, c2.received())
}

func TestRoomBroadcastReportsSlowConsumers(t *testing.T) {
	room := NewRoom(domain.NewSession("s1", false))
	c1 := newFakeConn("c1")
	slow := newFakeConn("c2")
	slow.full = true
	room.Join(mustParticipant(t, "p1", "Alice", domain.RoleHost), c1)
	room.Join(mustParticipant(t, "p2", "Bob", domain.RoleMember), slow)

	res := room.Broadcast("c1", Frame(`{}`), ExcludeSender)
	require.Equal(t, 0, res.SentTo)
	require.Equal(t, []ConnID{"c2"}, res.Dropped)
}

func TestRoomInfo(t *testing.T) {
	room := NewRoom(domain.NewSession("s1", true))
	room.Join(mustParticipant(t, "p1", "Alice", domain.RoleHost), newFakeConn("c1"))

	info := room.Info()
	require.Equal(t, domain.SessionID("s1"), info.ID)
	require.True(t, info.IsAISession)
	require.Equal(t, 1, info.ParticipantCount)
	require.Equal(t, 1, info.ConnectionCount)
}
