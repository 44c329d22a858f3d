// Package domain contains entities without logic, just meta-data.
package domain

import (
	"encoding/json"
	"time"
)

type SessionID string

// Metadata is client-supplied and forwarded verbatim to peers.
// The relay never inspects it.
type Metadata = json.RawMessage

// Session is one connected client: its identity, room binding and
// liveness stamp. LastSeen advances only when the client polls.
type Session struct {
	ID       SessionID
	Room     RoomID
	Metadata Metadata
	LastSeen time.Time
}
