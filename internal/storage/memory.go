package storage

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sketchroom/go-sketchroom/internal/types"
)

// MemoryStore is an in-process RoomRepository and AccountRepository. It is
// the simulated backing store the room directory runs against until a real
// service exists. Rooms are stored by value and deep-copied on every read
// and write so callers never share participant slices with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string]types.Room
	codes    map[string]string
	accounts map[string]Account
	emails   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string]types.Room),
		codes:    make(map[string]string),
		accounts: make(map[string]Account),
		emails:   make(map[string]string),
	}
}

func copyRoom(r types.Room) types.Room {
	r.Participants = slices.Clone(r.Participants)
	return r
}

func (m *MemoryStore) SaveRoom(_ context.Context, room types.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.codes[room.Code]; ok {
		return ErrCodeTaken
	}

	m.rooms[room.ID] = copyRoom(room)
	m.codes[room.Code] = room.ID
	return nil
}

func (m *MemoryStore) UpdateRoom(_ context.Context, room types.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[room.ID]; !ok {
		return ErrNotFound
	}

	m.rooms[room.ID] = copyRoom(room)
	return nil
}

func (m *MemoryStore) RoomByID(_ context.Context, id string) (types.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[id]
	if !ok {
		return types.Room{}, ErrNotFound
	}
	return copyRoom(room), nil
}

func (m *MemoryStore) RoomByCode(_ context.Context, code string) (types.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.codes[code]
	if !ok {
		return types.Room{}, ErrNotFound
	}
	return copyRoom(m.rooms[id]), nil
}

func (m *MemoryStore) RoomsByCreator(_ context.Context, userID string) ([]types.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rooms []types.Room
	for _, room := range m.rooms {
		if room.CreatedBy == userID {
			rooms = append(rooms, copyRoom(room))
		}
	}

	slices.SortFunc(rooms, func(a, b types.Room) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return rooms, nil
}

func (m *MemoryStore) DeleteRoom(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return ErrNotFound
	}

	delete(m.rooms, id)
	delete(m.codes, room.Code)
	return nil
}

func (m *MemoryStore) CreateAccount(_ context.Context, params CreateAccountParams) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(params.Email)
	if _, ok := m.emails[email]; ok {
		return Account{}, ErrEmailTaken
	}

	account := Account{
		ID:           params.ID,
		Name:         params.Name,
		Email:        email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now(),
	}

	m.accounts[account.ID] = account
	m.emails[email] = account.ID
	return account, nil
}

func (m *MemoryStore) AccountByEmail(_ context.Context, email string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return m.accounts[id], nil
}

func (m *MemoryStore) AccountByID(_ context.Context, id string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return account, nil
}

// MemoryCredentialStore keeps the persisted credential in process memory.
// Useful for tests and for callers that opt out of persistence entirely.
type MemoryCredentialStore struct {
	mu      sync.RWMutex
	token   string
	user    types.User
	hasUser bool
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryCredentialStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNotFound
	}
	return s.token, nil
}

func (s *MemoryCredentialStore) SetCachedUser(_ context.Context, user types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.hasUser = true
	return nil
}

func (s *MemoryCredentialStore) CachedUser(_ context.Context) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasUser {
		return types.User{}, ErrNotFound
	}
	return s.user, nil
}

func (s *MemoryCredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = types.User{}
	s.hasUser = false
	return nil
}
