package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/driftline/voicerelay/internal/domain"
)

// MailboxStore holds each session's queue of undelivered events.
// Queues appear on first enqueue and vanish on drain or discard, so an
// enqueue aimed at a gone session leaves nothing behind but an unread
// queue the reaper's Discard will sweep.
type MailboxStore struct {
	mu     sync.Mutex
	queues map[domain.SessionID][]domain.Event
}

func NewMailboxStore() *MailboxStore {
	return &MailboxStore{queues: make(map[domain.SessionID][]domain.Event)}
}

func (m *MailboxStore) Enqueue(sid domain.SessionID, ev domain.Event) {
	m.mu.Lock()
	m.queues[sid] = append(m.queues[sid], ev)
	m.mu.Unlock()
	log.Debug().Str("module", "core.mailbox").Str("sid", string(sid)).Str("kind", ev.Kind).Msg("event enqueued")
}

// Drain takes the full queue and leaves it empty, in one critical section:
// an enqueue that completed before the drain is included, one after is not,
// and no event is delivered twice or dropped between the two.
func (m *MailboxStore) Drain(sid domain.SessionID) []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	evs := m.queues[sid]
	delete(m.queues, sid)
	return evs
}

func (m *MailboxStore) Discard(sid domain.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queues, sid)
}
