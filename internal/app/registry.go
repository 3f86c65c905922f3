package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/codepals/collab/internal/core"
	"github.com/codepals/collab/internal/domain"
)

type connEntry struct {
	Conn          core.Conn
	SessionID     domain.SessionID
	ParticipantID domain.ParticipantID
	Cancel        context.CancelFunc
}

// Registry tracks every live gateway connection and, once it has
// joined, which session and participant it belongs to. That recorded
// membership is what makes disconnect cleanup remove the right
// participant instead of an arbitrary one.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnID]*connEntry)}
}

// Bind registers a freshly accepted connection, before any join.
func (r *Registry) Bind(conn core.Conn, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = &connEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(conn.ID())).Msg("bound connection")
}

// SetMembership records the session/participant a connection joined as.
func (r *Registry) SetMembership(id core.ConnID, sid domain.SessionID, pid domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.SessionID = sid
		e.ParticipantID = pid
	}
}

func (r *Registry) ClearMembership(id core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.SessionID = ""
		e.ParticipantID = ""
	}
}

// MembershipOf returns the recorded session and participant for a
// connection. ok is false for connections that never joined.
func (r *Registry) MembershipOf(id core.ConnID) (domain.SessionID, domain.ParticipantID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.SessionID == "" {
		return "", "", false
	}
	return e.SessionID, e.ParticipantID, true
}

// Conns snapshots every live connection, joined or not. Used by the
// best-effort invite fan-out.
func (r *Registry) Conns() []core.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(lo.Values(r.conns), func(e *connEntry, _ int) core.Conn { return e.Conn })
}

// Cancel tears down a connection's read/write pumps. The pump exit
// path runs the usual disconnect cleanup.
func (r *Registry) Cancel(id core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	e.Conn.Close()
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("canceled connection")
	return true
}

func (r *Registry) Unbind(id core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbound connection")
}
