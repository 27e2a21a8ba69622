package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sketchroom/go-sketchroom/internal/room"
	"github.com/sketchroom/go-sketchroom/internal/session"
	"github.com/sketchroom/go-sketchroom/internal/stats"
	"github.com/sketchroom/go-sketchroom/internal/types"
)

// ErrAuthRequired is returned when a mutation is attempted without a valid
// session. Recoverable: the caller redirects to login.
var ErrAuthRequired = errors.New("authentication required")

// Metric names registered with the stats provider.
const (
	MetricLogins       = "Logins"
	MetricGuestLogins  = "GuestLogins"
	MetricRoomsCreated = "RoomsCreated"
	MetricRoomsJoined  = "RoomsJoined"
	MetricOperations   = "OperationsAppended"
)

// App is the public surface presentation collaborators consume. It wires the
// session manager, account service, room directory and room store together
// and is the only place cross-component flows (auth gating, join staleness,
// log clearing on transition) are coordinated.
type App struct {
	log       zerolog.Logger
	sessions  *session.Manager
	accounts  *session.AccountService
	directory *room.Directory
	rooms     *room.Store
	stats     stats.Provider
}

func NewApp(logger zerolog.Logger, sessions *session.Manager, accounts *session.AccountService, directory *room.Directory, rooms *room.Store, statsProvider stats.Provider) *App {
	a := &App{
		log:       logger.With().Str("component", "engine").Logger(),
		sessions:  sessions,
		accounts:  accounts,
		directory: directory,
		rooms:     rooms,
		stats:     statsProvider,
	}

	for _, name := range []string{
		MetricLogins,
		MetricGuestLogins,
		MetricRoomsCreated,
		MetricRoomsJoined,
		MetricOperations,
	} {
		a.stats.RegisterMetric(name)
	}

	return a
}

// Initialize hydrates the session from persisted state. Idempotent.
func (a *App) Initialize(ctx context.Context) error {
	return a.sessions.Initialize(ctx)
}

// Register creates an account and logs the new user in.
func (a *App) Register(ctx context.Context, name, email, password string) (types.User, error) {
	user, token, err := a.accounts.Register(ctx, name, email, password)
	if err != nil {
		return types.User{}, err
	}

	if err := a.sessions.Login(ctx, user, token); err != nil {
		return types.User{}, err
	}

	a.stats.Incr(MetricLogins)
	return user, nil
}

// Login authenticates a registered user by email and password.
func (a *App) Login(ctx context.Context, email, password string) (types.User, error) {
	user, token, err := a.accounts.Login(ctx, email, password)
	if err != nil {
		return types.User{}, err
	}

	if err := a.sessions.Login(ctx, user, token); err != nil {
		return types.User{}, err
	}

	a.stats.Incr(MetricLogins)
	return user, nil
}

// LoginWithToken installs an externally issued credential, e.g. one handed
// back by a real auth backend.
func (a *App) LoginWithToken(ctx context.Context, user types.User, token string) error {
	if err := a.sessions.Login(ctx, user, token); err != nil {
		return err
	}
	a.stats.Incr(MetricLogins)
	return nil
}

// LoginAsGuest creates an anonymous session.
func (a *App) LoginAsGuest(ctx context.Context) (types.User, error) {
	user, err := a.sessions.LoginAsGuest(ctx)
	if err != nil {
		return types.User{}, err
	}
	a.stats.Incr(MetricGuestLogins)
	return user, nil
}

// Logout clears the session and leaves any active room.
func (a *App) Logout(ctx context.Context) error {
	a.leaveCurrentRoom(ctx)
	return a.sessions.Logout(ctx)
}

func (a *App) IsAuthenticated() bool {
	return a.sessions.IsAuthenticated()
}

func (a *App) IsAnonymous() bool {
	return a.sessions.IsAnonymous()
}

// Session returns a snapshot of the current session state.
func (a *App) Session() session.Snapshot {
	return a.sessions.Snapshot()
}

// currentUser returns the session identity or ErrAuthRequired.
func (a *App) currentUser() (types.User, error) {
	if !a.sessions.IsAuthenticated() {
		return types.User{}, ErrAuthRequired
	}

	user := a.sessions.User()
	if user == nil {
		return types.User{}, ErrAuthRequired
	}
	return *user, nil
}

// CreateRoom creates a room owned by the current user.
func (a *App) CreateRoom(ctx context.Context, req types.CreateRoomRequest) (types.Room, error) {
	user, err := a.currentUser()
	if err != nil {
		return types.Room{}, err
	}

	created, err := a.directory.CreateRoom(ctx, req, user.ID)
	if err != nil {
		return types.Room{}, err
	}

	a.stats.Incr(MetricRoomsCreated)
	return created, nil
}

// JoinRoomByCode joins the current user into the room matching code and
// makes it the active room. The operation log is cleared exactly once as
// part of the transition. If the session moves to another room while the
// join is in flight, the late result is discarded and an error returned.
func (a *App) JoinRoomByCode(ctx context.Context, code string) (types.Room, error) {
	user, err := a.currentUser()
	if err != nil {
		return types.Room{}, err
	}

	req := types.JoinRoomRequest{
		Code:      room.NormalizeCode(code),
		UserID:    user.ID,
		Username:  user.Name,
		Anonymous: user.Anonymous,
	}

	// The join against the backing store is a suspension point; capture the
	// transition epoch before it so a stale completion can be detected.
	epoch := a.rooms.Epoch()
	a.rooms.SetLoading(true)

	joined, err := a.directory.JoinByCode(ctx, code, req)
	if err != nil {
		a.rooms.SetLoading(false)
		return types.Room{}, err
	}

	if !a.rooms.CompleteJoin(epoch, joined) {
		a.log.Info().Str("code", joined.Code).Msg("discarding stale join response")
		return types.Room{}, fmt.Errorf("join superseded by a newer room transition")
	}

	a.stats.Incr(MetricRoomsJoined)
	return joined, nil
}

// LeaveRoom leaves the active room, marking this user's membership inactive
// in the backing store and clearing the local room state and operation log.
func (a *App) LeaveRoom(ctx context.Context) error {
	if _, err := a.currentUser(); err != nil {
		return err
	}

	a.leaveCurrentRoom(ctx)
	return nil
}

func (a *App) leaveCurrentRoom(ctx context.Context) {
	current := a.rooms.CurrentRoom()
	if current == nil {
		return
	}

	if user := a.sessions.User(); user != nil {
		// Presence toggle, not removal: the membership record survives so a
		// rejoin is recognized.
		if _, err := a.directory.SetParticipantActive(ctx, current.ID, user.ID, false); err != nil {
			a.log.Warn().Err(err).Str("room_id", current.ID).Msg("mark participant inactive")
		}
	}

	a.rooms.LeaveRoom()
}

// DeleteRoom deletes a room the current user created. If it is the active
// room, the local room state is cleared as well.
func (a *App) DeleteRoom(ctx context.Context, roomID string) error {
	user, err := a.currentUser()
	if err != nil {
		return err
	}

	if err := a.directory.DeleteRoom(ctx, roomID, user.ID); err != nil {
		return err
	}

	if current := a.rooms.CurrentRoom(); current != nil && current.ID == roomID {
		a.rooms.LeaveRoom()
	}
	return nil
}

// Rooms lists rooms created by the current user.
func (a *App) Rooms(ctx context.Context) ([]types.Room, error) {
	user, err := a.currentUser()
	if err != nil {
		return nil, err
	}
	return a.directory.RoomsByCreator(ctx, user.ID)
}

// AddDrawingOperation appends op to the active room's operation log. Missing
// id, user and timestamp fields are filled in; everything else is stored
// as given and immutable from then on.
func (a *App) AddDrawingOperation(op types.DrawingOperation) error {
	user, err := a.currentUser()
	if err != nil {
		return err
	}

	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.UserID == "" {
		op.UserID = user.ID
	}
	if op.Timestamp == 0 {
		op.Timestamp = time.Now().UnixMilli()
	}

	if err := a.rooms.AddOperation(op); err != nil {
		return err
	}

	a.stats.Incr(MetricOperations)
	return nil
}

// ClearCanvas empties the active room's operation log.
func (a *App) ClearCanvas() error {
	if _, err := a.currentUser(); err != nil {
		return err
	}

	a.rooms.ClearCanvas()
	return nil
}

// CurrentRoom returns a copy of the active room, or nil.
func (a *App) CurrentRoom() *types.Room {
	return a.rooms.CurrentRoom()
}

// Operations returns the active room's operation log in replay order.
func (a *App) Operations() []types.DrawingOperation {
	return a.rooms.Operations()
}

// RoomState returns a snapshot of the room store.
func (a *App) RoomState() room.Snapshot {
	return a.rooms.State()
}
