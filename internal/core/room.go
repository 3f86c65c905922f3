package core

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/codepals/collab/internal/domain"
)

// Room is a threadsafe in-memory collaboration session.
// It owns the participant registry and the connection set but never
// closes adapter-owned transports.
//
// byConn records which participant each connection belongs to at join
// time, so a disconnect removes exactly that participant and not an
// arbitrary one.
type Room struct {
	session *domain.Session

	mu           sync.RWMutex
	participants map[domain.ParticipantID]*domain.Participant
	conns        map[ConnID]Conn
	byConn       map[ConnID]domain.ParticipantID
}

func NewRoom(session *domain.Session) *Room {
	return &Room{
		session:      session,
		participants: make(map[domain.ParticipantID]*domain.Participant),
		conns:        make(map[ConnID]Conn),
		byConn:       make(map[ConnID]domain.ParticipantID),
	}
}

func (r *Room) Session() *domain.Session { return r.session }

func (r *Room) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Join adds the participant and its connection and returns the roster
// after insertion. Joining with an id that is already present
// overwrites it: rejoin semantics, last join wins.
func (r *Room) Join(p *domain.Participant, conn Conn) []domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.ID] = p
	r.conns[conn.ID()] = conn
	r.byConn[conn.ID()] = p.ID
	log.Info().Str("module", "core.room").
		Str("session", string(r.session.ID)).
		Str("participant", string(p.ID)).
		Str("conn", string(conn.ID())).
		Msg("participant joined")
	return r.rosterLocked()
}

// Leave removes the connection and, when no other connection maps to
// the same participant, the participant itself. Returns the roster
// after removal. Leaving a room one is not in is a no-op.
func (r *Room) Leave(pid domain.ParticipantID, connID ConnID) []domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
	delete(r.byConn, connID)
	for _, other := range r.byConn {
		if other == pid {
			return r.rosterLocked()
		}
	}
	delete(r.participants, pid)
	log.Info().Str("module", "core.room").
		Str("session", string(r.session.ID)).
		Str("participant", string(pid)).
		Msg("participant left")
	return r.rosterLocked()
}

// ParticipantOf reports which participant a connection was bound to at
// join time. The gateway consults this on unexpected disconnects.
func (r *Room) ParticipantOf(connID ConnID) (domain.ParticipantID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pid, ok := r.byConn[connID]
	return pid, ok
}

// Broadcast fans one frame out to the room's connections according to
// the visibility policy. Delivery is non-blocking per destination;
// connections whose queue is full are reported in PublishResult and
// left to the caller's backpressure policy.
func (r *Room) Broadcast(from ConnID, data Frame, vis Visibility) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for id, c := range r.conns {
		if vis == ExcludeSender && id == from {
			continue
		}
		if err := c.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").
		Str("session", string(r.session.ID)).
		Str("from", string(from)).
		Int("sent_to", res.SentTo).
		Int("dropped", len(res.Dropped)).
		Msg("broadcast result")
	return res
}

// Roster returns the current participants, sorted by id for stable output.
func (r *Room) Roster() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rosterLocked()
}

func (r *Room) rosterLocked() []domain.Participant {
	out := lo.Map(lo.Values(r.participants), func(p *domain.Participant, _ int) domain.Participant {
		return *p
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Room) Info() SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return SessionInfo{
		ID:               r.session.ID,
		IsAISession:      r.session.IsAISession,
		ParticipantCount: len(r.participants),
		ConnectionCount:  len(r.conns),
	}
}
