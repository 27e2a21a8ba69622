package room

import (
	"errors"
	"strings"
)

var (
	// ErrRoomNotFound is returned when no room matches a (normalized) code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a room's active participant count has
	// reached its capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrNotRoomCreator is returned when a destructive operation is
	// attempted by someone other than the room's creator.
	ErrNotRoomCreator = errors.New("user is not the room creator")
	// ErrNoActiveRoom is returned when an operation requires a joined room.
	ErrNoActiveRoom = errors.New("no active room")
)

// ValidationError carries every violation found in a request, not just the
// first, so a caller can surface them all at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Violations, "; ")
}
