package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codepals/collab/internal/domain"
)

// Directory is the process-wide map of live sessions. It is the single
// source of truth for "does this session currently have anyone in it":
// entries are created on first join and deleted once the owning room's
// connection set empties. Construct one per process and pass it by
// reference; there is no package-level instance.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.SessionID]*Room
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.SessionID]*Room)}
}

// GetOrCreate returns the room for id, creating it atomically when
// absent. Two concurrent first joins observe the same room.
func (d *Directory) GetOrCreate(id domain.SessionID, isAI bool) *Room {
	d.mu.RLock()
	room, ok := d.rooms[id]
	d.mu.RUnlock()
	if ok {
		return room
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok = d.rooms[id]; ok {
		return room
	}
	room = NewRoom(domain.NewSession(id, isAI))
	d.rooms[id] = room
	log.Info().Str("module", "core.directory").Str("session", string(id)).Msg("session created")
	return room
}

// Join resolves the room for id, creating it when absent, and adds the
// participant's connection within the same critical section. Resolving
// and joining as two steps would race RemoveIfEmpty: an empty room can
// be evicted between them, stranding a live connection in a room the
// directory no longer knows about.
func (d *Directory) Join(id domain.SessionID, isAI bool, p *domain.Participant, conn Conn) (*Room, []domain.Participant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		room = NewRoom(domain.NewSession(id, isAI))
		d.rooms[id] = room
		log.Info().Str("module", "core.directory").Str("session", string(id)).Msg("session created")
	}
	roster := room.Join(p, conn)
	return room, roster
}

func (d *Directory) Get(id domain.SessionID) (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[id]
	return room, ok
}

// RemoveIfEmpty drops the directory entry when the room holds no
// connections. Called after every leave and disconnect. The room check
// runs under the directory lock so a concurrent join either lands
// before the check (entry survives) or creates a fresh room afterwards.
func (d *Directory) RemoveIfEmpty(id domain.SessionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok || room.ConnCount() > 0 {
		return
	}
	delete(d.rooms, id)
	log.Info().Str("module", "core.directory").Str("session", string(id)).Msg("session destroyed")
}

func (d *Directory) List() []SessionInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]SessionInfo, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, r.Info())
	}
	return out
}
