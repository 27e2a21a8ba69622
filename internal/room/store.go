package room

import (
	"sync"

	"github.com/sketchroom/go-sketchroom/internal/types"
)

// Snapshot is a point-in-time copy of the room store's state. Presentation
// collaborators only ever see snapshots; they never hold references into the
// store's own values.
type Snapshot struct {
	CurrentRoom    *types.Room
	ConnectedUsers []string
	Operations     []types.DrawingOperation
	Connected      bool
	Loading        bool
}

// Store owns the process-wide active-room state: the current room, its
// connected users and the operation log. Room transitions are serialized
// through an epoch counter so that a late-arriving join response for a room
// the session has already moved away from is discarded, and the log is
// cleared exactly once per transition rather than once per racing call.
type Store struct {
	mu             sync.RWMutex
	currentRoom    *types.Room
	connectedUsers []string
	log            *OperationLog
	connected      bool
	loading        bool
	epoch          uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewStore() *Store {
	return &Store{
		log:  NewOperationLog(),
		subs: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn to be called with a snapshot after every state
// change. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	snap := s.State()

	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// State returns a snapshot of the store.
func (s *Store) State() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ConnectedUsers: append([]string(nil), s.connectedUsers...),
		Operations:     s.log.Snapshot(),
		Connected:      s.connected,
		Loading:        s.loading,
	}
	if s.currentRoom != nil {
		r := *s.currentRoom
		r.Participants = append([]types.Participant(nil), r.Participants...)
		snap.CurrentRoom = &r
	}
	return snap
}

// CurrentRoom returns a copy of the active room, or nil when roomless.
func (s *Store) CurrentRoom() *types.Room {
	return s.State().CurrentRoom
}

// Epoch returns the current room-transition epoch. Callers starting a
// suspension-point operation (a join against the backing store) capture the
// epoch first and hand it to CompleteJoin afterwards.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// CompleteJoin installs room as the current room if no other transition has
// happened since epoch was captured. It reports whether the join was applied;
// a false return means the response was stale and must be discarded. On
// success the operation log is cleared as part of the same transition.
func (s *Store) CompleteJoin(epoch uint64, room types.Room) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.epoch++
	s.currentRoom = &room
	s.connected = true
	s.loading = false
	s.log.Clear()
	s.mu.Unlock()

	s.notify()
	return true
}

// LeaveRoom clears the active room, connected users and operation log.
// Loading is reset too: leaving while a join is in flight abandons that join,
// so the store must not stay in a loading state the epoch guard will never
// resolve.
func (s *Store) LeaveRoom() {
	s.mu.Lock()
	s.epoch++
	s.currentRoom = nil
	s.connected = false
	s.connectedUsers = nil
	s.loading = false
	s.log.Clear()
	s.mu.Unlock()

	s.notify()
}

// UpdateRoom replaces the current room value if it matches id. Used when the
// roster changes out from under the client.
func (s *Store) UpdateRoom(room types.Room) {
	s.mu.Lock()
	if s.currentRoom == nil || s.currentRoom.ID != room.ID {
		s.mu.Unlock()
		return
	}
	s.currentRoom = &room
	s.mu.Unlock()

	s.notify()
}

// AddOperation appends op to the active room's log.
func (s *Store) AddOperation(op types.DrawingOperation) error {
	s.mu.Lock()
	if s.currentRoom == nil {
		s.mu.Unlock()
		return ErrNoActiveRoom
	}
	s.log.Append(op)
	s.mu.Unlock()

	s.notify()
	return nil
}

// ClearCanvas empties the operation log without leaving the room.
func (s *Store) ClearCanvas() {
	s.mu.Lock()
	s.log.Clear()
	s.mu.Unlock()

	s.notify()
}

// Operations returns the log in replay order.
func (s *Store) Operations() []types.DrawingOperation {
	return s.log.Snapshot()
}

func (s *Store) SetConnectedUsers(users []string) {
	s.mu.Lock()
	s.connectedUsers = append([]string(nil), users...)
	s.mu.Unlock()

	s.notify()
}

func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	s.connected = connected
	s.mu.Unlock()

	s.notify()
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()

	s.notify()
}
