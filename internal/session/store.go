package session

import (
	"sync"

	"github.com/sketchroom/go-sketchroom/internal/types"
)

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	User    *types.User
	Token   string
	Loading bool
}

// Store owns the process-wide session state: at most one (identity,
// credential) pair per process. Mutations go through the documented methods;
// external collaborators read snapshots and subscribe to changes.
type Store struct {
	mu      sync.RWMutex
	user    *types.User
	token   string
	loading bool

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewStore() *Store {
	return &Store{
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

func (s *Store) State() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Token:   s.token,
		Loading: s.loading,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// SetSession atomically replaces the identity and credential.
func (s *Store) SetSession(user types.User, token string) {
	s.mu.Lock()
	s.user = &user
	s.token = token
	s.loading = false
	s.mu.Unlock()

	s.notify()
}

// ClearSession drops the identity and credential.
func (s *Store) ClearSession() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.loading = false
	s.mu.Unlock()

	s.notify()
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()

	s.notify()
}
