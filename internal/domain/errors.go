package domain

import "errors"

var (
	// ErrSessionNotFound means the caller's session id is unknown,
	// typically because it expired and was reaped.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRoomNotFound means the session's room no longer exists. This can
	// happen when the reaper empties a room between lookup and use; the
	// client should rejoin.
	ErrRoomNotFound = errors.New("room not found")
)
