package domain

import (
	"encoding/json"
	"time"
)

// Reserved event kinds. A signal event carries the application-supplied
// signal type as its kind instead.
const (
	KindPeerJoined   = "peer_joined"
	KindRoomSnapshot = "room_snapshot"
)

// Event is a single mailbox entry. Immutable once enqueued.
type Event struct {
	Kind      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// PeerJoined announces a new member to everyone already in the room.
type PeerJoined struct {
	SessionID SessionID `json:"session_id"`
	Metadata  Metadata  `json:"metadata"`
}

// PeerInfo is one member as seen by others: id plus verbatim metadata.
type PeerInfo struct {
	SessionID SessionID `json:"session_id"`
	Metadata  Metadata  `json:"metadata"`
}

// RoomSnapshot tells a new member who was already present when it joined.
// It never includes the new member itself.
type RoomSnapshot struct {
	RoomID RoomID     `json:"room_id"`
	Peers  []PeerInfo `json:"peers"`
}

// SignalData wraps a relayed payload with its sender.
type SignalData struct {
	From SessionID       `json:"from"`
	Data json.RawMessage `json:"data"`
}
