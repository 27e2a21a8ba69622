package types

import "time"

// User is the identity attached to a session. Ids are opaque; guest users
// carry generated ids prefixed with "anon_".
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Anonymous bool   `json:"is_anonymous"`
}

// Participant is a user's membership record within a room. Active is presence
// state: it is toggled on connect/disconnect without dropping the record, so a
// temporarily disconnected user is distinguishable from one who left for good.
type Participant struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Anonymous bool      `json:"is_anonymous"`
	JoinedAt  time.Time `json:"joined_at"`
	Active    bool      `json:"is_active"`
}

type Room struct {
	ID              string        `json:"id"`
	Code            string        `json:"code"`
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	CreatedBy       string        `json:"created_by"`
	CreatedAt       time.Time     `json:"created_at"`
	Participants    []Participant `json:"participants"`
	MaxParticipants int           `json:"max_participants"`
	Active          bool          `json:"is_active"`
	Public          bool          `json:"is_public"`
}

type Point struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Pressure *float64 `json:"pressure,omitempty"`
}

const (
	OpDraw  = "draw"
	OpErase = "erase"
)

// DrawingOperation is immutable once appended to a room's operation log.
// Timestamp is advisory display data in epoch milliseconds; replay order is
// defined by log arrival order, not by this field.
type DrawingOperation struct {
	ID        string  `json:"id"`
	Kind      string  `json:"type"`
	Points    []Point `json:"points"`
	Color     string  `json:"color"`
	BrushSize int     `json:"brush_size"`
	UserID    string  `json:"user_id"`
	Timestamp int64   `json:"timestamp"`
}

type CreateRoomRequest struct {
	Name            string `json:"name" validate:"required,min=3,max=50"`
	Description     string `json:"description" validate:"omitempty,max=200"`
	MaxParticipants int    `json:"max_participants" validate:"omitempty,min=2,max=50"`
	Public          *bool  `json:"is_public"`
}

type JoinRoomRequest struct {
	Code      string `json:"code" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Anonymous bool   `json:"is_anonymous"`
}
