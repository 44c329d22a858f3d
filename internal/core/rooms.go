package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/driftline/voicerelay/internal/domain"
)

type roomEntry struct {
	room    domain.Room
	members []domain.SessionID // insertion order = join order
}

// RoomRegistry is a threadsafe in-memory map of rooms to their members.
// Membership lists hold session ids only; session state lives in the
// SessionDirectory and is never duplicated here.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomEntry
	now   func() time.Time
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[domain.RoomID]*roomEntry),
		now:   time.Now,
	}
}

// GetOrCreate returns the room, creating an empty one on first use of the id.
func (r *RoomRegistry) GetOrCreate(id domain.RoomID) domain.Room {
	r.mu.RLock()
	e, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return e.room
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.rooms[id]; ok {
		return e.room
	}
	e = &roomEntry{room: domain.Room{ID: id, CreatedAt: r.now()}}
	r.rooms[id] = e
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("room created")
	return e.room
}

func (r *RoomRegistry) Has(id domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[id]
	return ok
}

// AddMember appends sid to the room's membership. Already-present members
// are left alone, so a double join cannot duplicate an entry.
func (r *RoomRegistry) AddMember(id domain.RoomID, sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[id]
	if !ok {
		e = &roomEntry{room: domain.Room{ID: id, CreatedAt: r.now()}}
		r.rooms[id] = e
	}
	for _, m := range e.members {
		if m == sid {
			return
		}
	}
	e.members = append(e.members, sid)
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Str("sid", string(sid)).Msg("member added")
}

// RemoveMember drops sid from the room. An emptied room is deleted outright;
// a later GetOrCreate with the same id starts from a fresh room.
func (r *RoomRegistry) RemoveMember(id domain.RoomID, sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[id]
	if !ok {
		return
	}
	for i, m := range e.members {
		if m == sid {
			e.members = append(e.members[:i], e.members[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Str("sid", string(sid)).Msg("member removed")
	if len(e.members) == 0 {
		delete(r.rooms, id)
		log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("empty room deleted")
	}
}

// ListMembers returns the membership in join order. Absent room yields an
// empty slice, not an error. The slice is a copy and safe to hold.
func (r *RoomRegistry) ListMembers(id domain.RoomID) []domain.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[id]
	if !ok {
		return nil
	}
	out := make([]domain.SessionID, len(e.members))
	copy(out, e.members)
	return out
}

func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// RoomInfo is a read-only view for APIs.
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (r *RoomRegistry) Infos() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, e := range r.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(e.members), CreatedAt: e.room.CreatedAt})
	}
	return out
}
