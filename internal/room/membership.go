package room

import (
	"slices"
	"time"

	"github.com/sketchroom/go-sketchroom/internal/types"
)

// Membership helpers treat a room as an immutable value: every mutation
// returns a new room with a fresh participant slice, never touching the
// input. Concurrent readers of an old snapshot stay consistent.

// AddParticipant appends a new participant built from req. If the user is
// already on the roster the existing record is reactivated instead, keeping
// its original JoinedAt, so a rejoin never duplicates a participant.
func AddParticipant(r types.Room, req types.JoinRoomRequest) types.Room {
	participants := slices.Clone(r.Participants)

	for i, p := range participants {
		if p.UserID == req.UserID {
			participants[i].Active = true
			r.Participants = participants
			return r
		}
	}

	r.Participants = append(participants, types.Participant{
		UserID:    req.UserID,
		Username:  req.Username,
		Anonymous: req.Anonymous,
		JoinedAt:  time.Now(),
		Active:    true,
	})
	return r
}

// RemoveParticipant drops the user's record entirely. Permanent departure;
// use SetParticipantActive for transient disconnects.
func RemoveParticipant(r types.Room, userID string) types.Room {
	participants := make([]types.Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p.UserID != userID {
			participants = append(participants, p)
		}
	}
	r.Participants = participants
	return r
}

// SetParticipantActive toggles a participant's presence without removing
// the record.
func SetParticipantActive(r types.Room, userID string, active bool) types.Room {
	participants := slices.Clone(r.Participants)
	for i, p := range participants {
		if p.UserID == userID {
			participants[i].Active = active
			break
		}
	}
	r.Participants = participants
	return r
}

// IsRoomCreator is the single predicate gating both destructive operations
// (delete) and decorative ones (owner badge).
func IsRoomCreator(r types.Room, userID string) bool {
	return r.CreatedBy == userID
}

func IsUserInRoom(r types.Room, userID string) bool {
	return slices.ContainsFunc(r.Participants, func(p types.Participant) bool {
		return p.UserID == userID
	})
}

// ActiveParticipantCount counts present participants only. Capacity checks
// use this, not len(Participants), so a departed-but-not-removed participant
// does not permanently consume a slot.
func ActiveParticipantCount(r types.Room) int {
	var n int
	for _, p := range r.Participants {
		if p.Active {
			n++
		}
	}
	return n
}

func IsRoomFull(r types.Room) bool {
	return ActiveParticipantCount(r) >= r.MaxParticipants
}
