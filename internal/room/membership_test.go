package room

import (
	"testing"
	"time"

	"github.com/sketchroom/go-sketchroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom() types.Room {
	return types.Room{
		ID:              "r1",
		Code:            "ABC123",
		Name:            "Sketch club",
		CreatedBy:       "u1",
		CreatedAt:       time.Now(),
		Participants:    []types.Participant{},
		MaxParticipants: 2,
		Active:          true,
		Public:          true,
	}
}

func joinReq(userID string) types.JoinRoomRequest {
	return types.JoinRoomRequest{
		Code:     "ABC123",
		UserID:   userID,
		Username: "user-" + userID,
	}
}

func TestAddParticipant(t *testing.T) {
	r := testRoom()

	r2 := AddParticipant(r, joinReq("u1"))
	require.Len(t, r2.Participants, 1)
	assert.Equal(t, "u1", r2.Participants[0].UserID)
	assert.True(t, r2.Participants[0].Active)
	assert.Empty(t, r.Participants, "expected input room to be untouched")

	t.Run("rejoin does not duplicate", func(t *testing.T) {
		joined := r2.Participants[0].JoinedAt

		r3 := AddParticipant(r2, joinReq("u1"))
		require.Len(t, r3.Participants, 1, "expected idempotent join")
		assert.Equal(t, joined, r3.Participants[0].JoinedAt, "expected JoinedAt to survive rejoin")
		assert.True(t, r3.Participants[0].Active)
	})

	t.Run("rejoin reactivates inactive record", func(t *testing.T) {
		inactive := SetParticipantActive(r2, "u1", false)
		require.False(t, inactive.Participants[0].Active)

		r3 := AddParticipant(inactive, joinReq("u1"))
		require.Len(t, r3.Participants, 1)
		assert.True(t, r3.Participants[0].Active)
	})
}

func TestRemoveParticipant(t *testing.T) {
	r := AddParticipant(testRoom(), joinReq("u1"))
	r = AddParticipant(r, joinReq("u2"))
	require.Len(t, r.Participants, 2)

	r2 := RemoveParticipant(r, "u1")
	require.Len(t, r2.Participants, 1)
	assert.Equal(t, "u2", r2.Participants[0].UserID)
	assert.Len(t, r.Participants, 2, "expected input room to be untouched")

	r3 := RemoveParticipant(r2, "unknown")
	assert.Len(t, r3.Participants, 1, "expected removing an unknown user to be a no-op")
}

func TestSetParticipantActiveRoundTrip(t *testing.T) {
	r := AddParticipant(testRoom(), joinReq("u1"))
	r = AddParticipant(r, joinReq("u2"))

	orig := ActiveParticipantCount(r)
	require.Equal(t, 2, orig)

	r2 := SetParticipantActive(r, "u1", false)
	assert.Equal(t, orig-1, ActiveParticipantCount(r2))
	assert.Len(t, r2.Participants, 2, "expected record to survive deactivation")

	r3 := SetParticipantActive(r2, "u1", true)
	assert.Equal(t, orig, ActiveParticipantCount(r3), "expected count to return to original after reactivation")
}

func TestIsRoomCreator(t *testing.T) {
	r := testRoom()
	assert.True(t, IsRoomCreator(r, "u1"))
	assert.False(t, IsRoomCreator(r, "u2"))
}

func TestIsRoomFull(t *testing.T) {
	r := AddParticipant(testRoom(), joinReq("u1"))
	assert.False(t, IsRoomFull(r))

	r = AddParticipant(r, joinReq("u2"))
	assert.True(t, IsRoomFull(r))

	// A departed-but-not-removed participant frees a slot: capacity counts
	// active members only.
	r = SetParticipantActive(r, "u1", false)
	assert.False(t, IsRoomFull(r))
}

func TestIsUserInRoom(t *testing.T) {
	r := AddParticipant(testRoom(), joinReq("u1"))
	assert.True(t, IsUserInRoom(r, "u1"))
	assert.False(t, IsUserInRoom(r, "u2"))

	r = SetParticipantActive(r, "u1", false)
	assert.True(t, IsUserInRoom(r, "u1"), "expected inactive member to still be in the room")
}
