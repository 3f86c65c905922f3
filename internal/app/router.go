package app

import (
	"github.com/rs/zerolog/log"

	"github.com/codepals/collab/internal/core"
	"github.com/codepals/collab/internal/domain"
	"github.com/codepals/collab/internal/event"
)

// Router classifies inbound wire events and invokes the matching room
// operation. It owns no mutable state of its own: sessions live in the
// Directory, connection bindings in the Registry. Malformed events are
// dropped and logged; nothing here can take the gateway down.
type Router struct {
	Registry  *Registry
	Directory *core.Directory
	Policy    Policy
}

func NewRouter(reg *Registry, dir *core.Directory, policy Policy) *Router {
	if policy == nil {
		policy = DisconnectPolicy{}
	}
	return &Router{Registry: reg, Directory: dir, Policy: policy}
}

// HandleEvent dispatches one inbound frame from conn. The kind set is
// closed; unknown kinds are a forward-compatible no-op.
func (rt *Router) HandleEvent(conn core.Conn, data []byte) {
	kind, err := event.DecodeEnvelope(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("conn", string(conn.ID())).Msg("dropping undecodable event")
		return
	}

	switch kind {
	case event.KindJoinSession:
		rt.handleJoin(conn, data)
	case event.KindLeaveSession:
		rt.handleLeave(conn, data)
	case event.KindCodeChange:
		rt.handleCodeChange(conn, data)
	case event.KindLanguageChange:
		rt.handleLanguageChange(conn, data)
	case event.KindChatMessage:
		rt.handleChatMessage(conn, data)
	case event.KindCursorPosition:
		rt.handleCursorPosition(conn, data)
	case event.KindSelectionChange:
		rt.handleSelectionChange(conn, data)
	case event.KindAIHelpRequest:
		rt.handleAIHelpRequest(conn, data)
	case event.KindInviteUser:
		rt.handleInvite(conn, data)
	default:
		log.Warn().Str("module", "app.router").Str("kind", string(kind)).Msg("unknown event kind dropped")
	}
}

// OnDisconnect cleans up after a connection goes away, expectedly or
// not. The membership recorded at join time identifies exactly which
// participant to remove.
func (rt *Router) OnDisconnect(connID core.ConnID) {
	defer rt.Registry.Unbind(connID)

	sid, pid, ok := rt.Registry.MembershipOf(connID)
	if !ok {
		return
	}
	rt.leaveRoom(connID, sid, pid)
	log.Info().Str("module", "app.router").
		Str("conn", string(connID)).
		Str("session", string(sid)).
		Str("participant", string(pid)).
		Msg("disconnect cleanup done")
}

// leaveRoom removes one recorded membership: the participant's
// connection goes, remaining occupants get user-left, and the session
// entry is dropped once empty. Shared by explicit leaves on join-away,
// and disconnects.
func (rt *Router) leaveRoom(connID core.ConnID, sid domain.SessionID, pid domain.ParticipantID) {
	room, ok := rt.Directory.Get(sid)
	if !ok {
		return
	}
	roster := room.Leave(pid, connID)
	rt.broadcast(room, connID, core.ExcludeSender, event.UserLeft{
		Type:         event.OutUserLeft,
		UserID:       string(pid),
		Participants: roster,
	})
	rt.Directory.RemoveIfEmpty(sid)
}

func (rt *Router) handleJoin(conn core.Conn, data []byte) {
	p, err := event.DecodeJoinSession(data)
	if err != nil {
		rt.logDrop(conn, event.KindJoinSession, err)
		return
	}
	participant, err := p.ToParticipant()
	if err != nil {
		rt.logDrop(conn, event.KindJoinSession, err)
		return
	}

	sid := domain.SessionID(p.SessionID)

	// A connection joining elsewhere vacates its previous room first,
	// so nothing keeps fanning out to it there and an emptied session
	// is destroyed. Rejoining as the same participant in the same
	// session is the overwrite path, not a leave.
	if prevSID, prevPID, ok := rt.Registry.MembershipOf(conn.ID()); ok &&
		(prevSID != sid || prevPID != participant.ID) {
		rt.leaveRoom(conn.ID(), prevSID, prevPID)
		rt.Registry.ClearMembership(conn.ID())
	}

	room, roster := rt.Directory.Join(sid, p.IsAISession, participant, conn)
	rt.Registry.SetMembership(conn.ID(), sid, participant.ID)

	rt.sendTo(conn, event.SessionJoined{
		Type:         event.OutSessionJoined,
		SessionID:    p.SessionID,
		Participants: roster,
		IsAISession:  room.Session().IsAISession,
	})
	rt.broadcast(room, conn.ID(), core.ExcludeSender, event.UserJoined{
		Type:         event.OutUserJoined,
		User:         *participant,
		Participants: roster,
	})
}

func (rt *Router) handleLeave(conn core.Conn, data []byte) {
	p, err := event.DecodeLeaveSession(data)
	if err != nil {
		rt.logDrop(conn, event.KindLeaveSession, err)
		return
	}
	sid := domain.SessionID(p.SessionID)
	room, ok := rt.Directory.Get(sid)
	if !ok {
		// Leaving a session that no longer exists is a no-op.
		return
	}
	roster := room.Leave(domain.ParticipantID(p.UserID), conn.ID())
	rt.Registry.ClearMembership(conn.ID())
	rt.broadcast(room, conn.ID(), core.ExcludeSender, event.UserLeft{
		Type:         event.OutUserLeft,
		UserID:       p.UserID,
		Participants: roster,
	})
	rt.Directory.RemoveIfEmpty(sid)
}

func (rt *Router) handleCodeChange(conn core.Conn, data []byte) {
	p, err := event.DecodeCodeChange(data)
	if err != nil {
		rt.logDrop(conn, event.KindCodeChange, err)
		return
	}
	rt.roomBroadcast(conn, p.SessionID, core.ExcludeSender, event.CodeChanged{
		Type:      event.OutCodeChanged,
		Code:      p.Code,
		Language:  p.Language,
		UserID:    p.UserID,
		Timestamp: p.Timestamp,
	})
}

func (rt *Router) handleLanguageChange(conn core.Conn, data []byte) {
	p, err := event.DecodeLanguageChange(data)
	if err != nil {
		rt.logDrop(conn, event.KindLanguageChange, err)
		return
	}
	rt.roomBroadcast(conn, p.SessionID, core.IncludeSender, event.LanguageChanged{
		Type:     event.OutLanguageChanged,
		Language: p.Language,
		UserID:   p.UserID,
	})
}

func (rt *Router) handleChatMessage(conn core.Conn, data []byte) {
	p, err := event.DecodeChatMessage(data)
	if err != nil {
		rt.logDrop(conn, event.KindChatMessage, err)
		return
	}
	rt.roomBroadcast(conn, p.SessionID, core.IncludeSender, event.ChatMessageReceived{
		Type:        event.OutChatMessage,
		Content:     p.Content,
		UserID:      p.UserID,
		MessageType: p.MessageType,
		Timestamp:   p.Timestamp,
	})
}

func (rt *Router) handleCursorPosition(conn core.Conn, data []byte) {
	p, err := event.DecodeCursorPosition(data)
	if err != nil {
		rt.logDrop(conn, event.KindCursorPosition, err)
		return
	}
	rt.roomBroadcast(conn, p.SessionID, core.ExcludeSender, event.CursorMoved{
		Type:     event.OutCursorMoved,
		UserID:   p.UserID,
		Position: p.Position,
	})
}

func (rt *Router) handleSelectionChange(conn core.Conn, data []byte) {
	p, err := event.DecodeSelectionChange(data)
	if err != nil {
		rt.logDrop(conn, event.KindSelectionChange, err)
		return
	}
	rt.roomBroadcast(conn, p.SessionID, core.ExcludeSender, event.SelectionChanged{
		Type:      event.OutSelectionChange,
		UserID:    p.UserID,
		Selection: p.Selection,
	})
}

func (rt *Router) handleAIHelpRequest(conn core.Conn, data []byte) {
	p, err := event.DecodeAIHelpRequest(data)
	if err != nil {
		rt.logDrop(conn, event.KindAIHelpRequest, err)
		return
	}
	// Only the "help was requested" notification travels through the
	// room; the answer itself is fetched by the requester over HTTP.
	rt.roomBroadcast(conn, p.SessionID, core.IncludeSender, event.AIHelpRequested{
		Type:      event.OutAIHelpRequested,
		Code:      p.Code,
		Language:  p.Language,
		Question:  p.Question,
		Timestamp: event.Now(),
	})
}

// handleInvite fans the invite out to every live gateway connection,
// not just the room: the invited user is by definition not in the room
// yet, and no userId->connection mapping exists. Best-effort, not
// targeted.
func (rt *Router) handleInvite(conn core.Conn, data []byte) {
	p, err := event.DecodeInviteUser(data)
	if err != nil {
		rt.logDrop(conn, event.KindInviteUser, err)
		return
	}
	frame, err := event.Marshal(event.SessionInvite{
		Type:        event.OutSessionInvite,
		SessionID:   p.SessionID,
		InviterName: p.InviterName,
		Timestamp:   event.Now(),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("marshal session-invite")
		return
	}
	for _, c := range rt.Registry.Conns() {
		if err := c.TrySend(frame); err != nil {
			log.Debug().Str("module", "app.router").Str("conn", string(c.ID())).Msg("invite not delivered")
		}
	}
	log.Info().Str("module", "app.router").
		Str("session", p.SessionID).
		Str("invited", p.InvitedUserID).
		Msg("session invite broadcast")
}

// roomBroadcast marshals and fans v out within the event's session.
// Events for sessions that do not exist are dropped silently: the
// sender may be racing its own leave.
func (rt *Router) roomBroadcast(conn core.Conn, sessionID string, vis core.Visibility, v any) {
	room, ok := rt.Directory.Get(domain.SessionID(sessionID))
	if !ok {
		log.Debug().Str("module", "app.router").Str("session", sessionID).Msg("event for unknown session dropped")
		return
	}
	rt.broadcast(room, conn.ID(), vis, v)
}

func (rt *Router) broadcast(room *core.Room, from core.ConnID, vis core.Visibility, v any) {
	frame, err := event.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("marshal outbound event")
		return
	}
	res := room.Broadcast(from, frame, vis)
	for _, slow := range res.Dropped {
		switch rt.Policy.OnBackpressure(room, slow) {
		case Disconnect:
			log.Warn().Str("module", "app.router").Str("conn", string(slow)).Msg("slow consumer disconnected")
			rt.Registry.Cancel(slow)
		case DropEvent, NoAction:
		}
	}
}

func (rt *Router) sendTo(conn core.Conn, v any) {
	frame, err := event.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("marshal reply")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Debug().Str("module", "app.router").Str("conn", string(conn.ID())).Msg("reply not delivered")
	}
}

func (rt *Router) logDrop(conn core.Conn, kind event.Kind, err error) {
	log.Warn().Err(err).Str("module", "app.router").
		Str("conn", string(conn.ID())).
		Str("kind", string(kind)).
		Msg("invalid event dropped")
}
