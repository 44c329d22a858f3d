package app

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/driftline/voicerelay/internal/core"
	"github.com/driftline/voicerelay/internal/domain"
)

// Engine is the API-facing relay logic. It composes the three stores into
// atomic join/signal/poll/leave operations.
//
// Each store guards its own maps, but an operation that touches more than
// one store must not interleave with another such operation, or a caller
// could observe a session without its room membership (or vice versa).
// The engine mutex is that single serialization point; none of the
// operations block or do I/O while holding it.
type Engine struct {
	mu          sync.Mutex
	rooms       *core.RoomRegistry
	sessions    *core.SessionDirectory
	mailboxes   *core.MailboxStore
	defaultRoom domain.RoomID
	now         func() time.Time
}

func NewEngine(rooms *core.RoomRegistry, sessions *core.SessionDirectory, mailboxes *core.MailboxStore, defaultRoom domain.RoomID) *Engine {
	return &Engine{
		rooms:       rooms,
		sessions:    sessions,
		mailboxes:   mailboxes,
		defaultRoom: defaultRoom,
		now:         time.Now,
	}
}

// Join puts a new session into the room. Every member already present gets
// a peer_joined event, and the new session's mailbox starts with a
// room_snapshot listing exactly those members. The peer list is captured
// before the membership mutation, so the snapshot can never include the
// joiner itself. An empty room id falls back to the shared default room.
func (e *Engine) Join(roomID domain.RoomID, meta domain.Metadata) domain.Session {
	if roomID == "" {
		roomID = e.defaultRoom
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ts := e.now()
	room := e.rooms.GetOrCreate(roomID)
	peers := e.peersLocked(roomID)

	sess := e.sessions.Create(roomID, meta, ts)
	e.rooms.AddMember(roomID, sess.ID)

	for _, p := range peers {
		e.mailboxes.Enqueue(p.SessionID, domain.Event{
			Kind:      domain.KindPeerJoined,
			Data:      domain.PeerJoined{SessionID: sess.ID, Metadata: meta},
			Timestamp: ts,
		})
	}
	e.mailboxes.Enqueue(sess.ID, domain.Event{
		Kind:      domain.KindRoomSnapshot,
		Data:      domain.RoomSnapshot{RoomID: room.ID, Peers: peers},
		Timestamp: ts,
	})

	log.Info().Str("module", "app.engine").Str("sid", string(sess.ID)).Str("room", string(roomID)).Int("peers", len(peers)).Msg("joined room")
	return sess
}

// Signal fans a payload out to every other member of the sender's room.
// The payload is opaque: it is never parsed, validated or rewritten, and
// the sender never receives its own signal back.
//
// Signal deliberately does not refresh liveness; only Poll does. A client
// that signals without ever polling will still expire.
func (e *Engine) Signal(sid domain.SessionID, sigType string, payload json.RawMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.sessions.Lookup(sid)
	if !ok {
		return domain.ErrSessionNotFound
	}
	// The room can legitimately be gone here if the reaper emptied it
	// after this session was created. Distinct from an unknown session so
	// the client knows to rejoin.
	if !e.rooms.Has(sess.Room) {
		return domain.ErrRoomNotFound
	}

	ev := domain.Event{
		Kind:      sigType,
		Data:      domain.SignalData{From: sid, Data: payload},
		Timestamp: e.now(),
	}
	sent := 0
	for _, member := range e.rooms.ListMembers(sess.Room) {
		if member == sid {
			continue
		}
		e.mailboxes.Enqueue(member, ev)
		sent++
	}
	log.Debug().Str("module", "app.engine").Str("sid", string(sid)).Str("type", sigType).Int("sent_to", sent).Msg("signal relayed")
	return nil
}

// Poll refreshes the session's liveness and empties its mailbox. An
// unknown session (never existed, or already reaped) yields an empty
// result rather than an error, so a client can keep polling harmlessly.
func (e *Engine) Poll(sid domain.SessionID) []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sessions.Touch(sid, e.now())
	return e.mailboxes.Drain(sid)
}

// Leave unwinds a session the same way a reap does: membership, directory
// record and mailbox all go, and an emptied room is deleted. Unknown
// sessions are a no-op.
func (e *Engine) Leave(sid domain.SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evictLocked(sid)
}

// ExpiredSessions lists sessions idle longer than ttl. Used by the reaper.
func (e *Engine) ExpiredSessions(ttl time.Duration) []domain.SessionID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.Expired(e.now(), ttl)
}

// Evict removes one session and its cascading room/mailbox state.
func (e *Engine) Evict(sid domain.SessionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evictLocked(sid)
	return nil
}

// evictLocked must run under e.mu so no caller sees a session whose room
// membership is already gone.
func (e *Engine) evictLocked(sid domain.SessionID) {
	sess, ok := e.sessions.Lookup(sid)
	if !ok {
		return
	}
	e.rooms.RemoveMember(sess.Room, sid)
	e.sessions.Delete(sid)
	e.mailboxes.Discard(sid)
	log.Info().Str("module", "app.engine").Str("sid", string(sid)).Str("room", string(sess.Room)).Msg("session evicted")
}

// HealthInfo is the read-only view behind the health endpoint.
type HealthInfo struct {
	RoomCount    int `json:"rooms"`
	SessionCount int `json:"users"`
}

func (e *Engine) Health() HealthInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return HealthInfo{RoomCount: e.rooms.Count(), SessionCount: e.sessions.Count()}
}

func (e *Engine) Rooms() []core.RoomInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rooms.Infos()
}

// peersLocked resolves the room's current members to id+metadata views.
// A member missing from the directory is skipped; under e.mu the two
// stores cannot actually diverge, this just keeps the resolution total.
func (e *Engine) peersLocked(roomID domain.RoomID) []domain.PeerInfo {
	members := e.rooms.ListMembers(roomID)
	out := make([]domain.PeerInfo, 0, len(members))
	for _, sid := range members {
		s, ok := e.sessions.Lookup(sid)
		if !ok {
			continue
		}
		out = append(out, domain.PeerInfo{SessionID: s.ID, Metadata: s.Metadata})
	}
	return out
}
