package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/driftline/voicerelay/internal/domain"
)

// SessionDirectory maps session ids to their room binding and liveness.
// It holds no clock of its own; callers stamp every liveness mutation,
// which keeps the engine's notion of time the only one in play.
type SessionDirectory struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
}

func NewSessionDirectory() *SessionDirectory {
	return &SessionDirectory{sessions: make(map[domain.SessionID]*domain.Session)}
}

// Create registers a new session bound to room. The id is a fresh UUID, so
// it cannot be guessed from other sessions' ids.
func (d *SessionDirectory) Create(room domain.RoomID, meta domain.Metadata, now time.Time) domain.Session {
	s := domain.Session{
		ID:       domain.SessionID(uuid.NewString()),
		Room:     room,
		Metadata: meta,
		LastSeen: now,
	}
	d.mu.Lock()
	d.sessions[s.ID] = &s
	d.mu.Unlock()
	log.Info().Str("module", "core.sessions").Str("sid", string(s.ID)).Str("room", string(room)).Msg("session created")
	return s
}

// Touch refreshes the session's liveness stamp. Unknown ids are ignored:
// a client polling after it was reaped must not fail here.
func (d *SessionDirectory) Touch(sid domain.SessionID, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sessions[sid]; ok {
		s.LastSeen = now
	}
}

// Lookup returns a copy of the session record.
func (d *SessionDirectory) Lookup(sid domain.SessionID) (domain.Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[sid]
	if !ok {
		return domain.Session{}, false
	}
	return *s, true
}

func (d *SessionDirectory) Delete(sid domain.SessionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, sid)
	log.Info().Str("module", "core.sessions").Str("sid", string(sid)).Msg("session deleted")
}

// Expired returns the ids of all sessions whose last activity is older
// than ttl relative to now.
func (d *SessionDirectory) Expired(now time.Time, ttl time.Duration) []domain.SessionID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []domain.SessionID
	for sid, s := range d.sessions {
		if now.Sub(s.LastSeen) > ttl {
			out = append(out, sid)
		}
	}
	return out
}

func (d *SessionDirectory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}
