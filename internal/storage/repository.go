package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sketchroom/go-sketchroom/internal/types"
)

var (
	// ErrNotFound is returned when a room, account or credential does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCodeTaken is returned by SaveRoom when the room code is already in use.
	ErrCodeTaken = errors.New("room code already taken")
	// ErrEmailTaken is returned by CreateAccount on a duplicate email address.
	ErrEmailTaken = errors.New("email address already registered")
)

// CredentialStore persists the current session's credential. A single token
// lives under a well-known key, optionally alongside a cached copy of the
// user it was issued to. Absence of a token means logged out.
type CredentialStore interface {
	SetToken(ctx context.Context, token string) error
	Token(ctx context.Context) (string, error)
	SetCachedUser(ctx context.Context, user types.User) error
	CachedUser(ctx context.Context) (types.User, error)
	// Clear removes both the token and the cached user.
	Clear(ctx context.Context) error
}

// RoomRepository is the backing store rooms are created against. It owns
// code uniqueness: SaveRoom must reject a duplicate code with ErrCodeTaken
// so the directory can retry generation.
type RoomRepository interface {
	SaveRoom(ctx context.Context, room types.Room) error
	UpdateRoom(ctx context.Context, room types.Room) error
	RoomByID(ctx context.Context, id string) (types.Room, error)
	RoomByCode(ctx context.Context, code string) (types.Room, error)
	RoomsByCreator(ctx context.Context, userID string) ([]types.Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// Account is a registered user record.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type CreateAccountParams struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error)
	AccountByEmail(ctx context.Context, email string) (Account, error)
	AccountByID(ctx context.Context, id string) (Account, error)
}
