package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sketchroom/go-sketchroom/internal/credential"
	"github.com/sketchroom/go-sketchroom/internal/storage"
	"github.com/sketchroom/go-sketchroom/internal/types"
)

const (
	// defaultWatchdogInterval is how often the expiry watchdog re-reads the
	// persisted credential.
	defaultWatchdogInterval = time.Minute

	anonIDPrefix    = "anon_"
	anonSuffixChars = "abcdefghijklmnopqrstuvwxyz0123456789"
	anonSuffixLen   = 8
)

// Manager owns the session lifecycle: hydration at process start, login,
// guest login, logout and the expiry watchdog. All state lives in the Store;
// the manager is the only writer.
type Manager struct {
	log   zerolog.Logger
	store *Store
	codec *credential.Codec
	creds storage.CredentialStore

	watchdogInterval time.Duration

	mu           sync.Mutex
	stopWatchdog chan struct{}
	watchdogDone chan struct{}
}

func NewManager(logger zerolog.Logger, store *Store, codec *credential.Codec, creds storage.CredentialStore) *Manager {
	return &Manager{
		log:              logger.With().Str("component", "session").Logger(),
		store:            store,
		codec:            codec,
		creds:            creds,
		watchdogInterval: defaultWatchdogInterval,
	}
}

// SetWatchdogInterval overrides the watchdog period. Call before any login;
// a running watchdog keeps its old interval until restarted.
func (m *Manager) SetWatchdogInterval(d time.Duration) {
	m.watchdogInterval = d
}

// Initialize hydrates the session from the persisted credential. A missing,
// corrupt or expired credential is purged and leaves the session
// unauthenticated; no error is surfaced for that case. Initialize is
// idempotent and safe to call more than once.
func (m *Manager) Initialize(ctx context.Context) error {
	m.store.SetLoading(true)

	token, err := m.creds.Token(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn().Err(err).Msg("read persisted credential")
		}
		m.clear(ctx)
		return nil
	}

	if !m.codec.IsValid(token) {
		m.log.Info().Msg("persisted credential invalid or expired, purging")
		m.clear(ctx)
		return nil
	}

	user := m.codec.User(token)
	if user == nil {
		m.clear(ctx)
		return nil
	}

	m.store.SetSession(*user, token)
	m.startWatchdog()
	m.log.Info().Str("user_id", user.ID).Bool("anonymous", user.Anonymous).Msg("session hydrated")
	return nil
}

// Login persists token, installs the session and starts the expiry watchdog.
func (m *Manager) Login(ctx context.Context, user types.User, token string) error {
	if err := m.creds.SetToken(ctx, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := m.creds.SetCachedUser(ctx, user); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}

	m.store.SetSession(user, token)
	m.startWatchdog()
	m.log.Info().Str("user_id", user.ID).Bool("anonymous", user.Anonymous).Msg("logged in")
	return nil
}

// LoginAsGuest synthesizes an anonymous identity, mints a guest credential
// and logs it in.
func (m *Manager) LoginAsGuest(ctx context.Context) (types.User, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return types.User{}, fmt.Errorf("generate guest id: %w", err)
	}

	user := types.User{
		ID:        anonIDPrefix + suffix,
		Name:      "Guest " + suffix,
		Anonymous: true,
	}

	token, err := m.codec.Encode(user.ID, user.Name, true, credential.KindGuest)
	if err != nil {
		return types.User{}, fmt.Errorf("mint guest credential: %w", err)
	}

	if err := m.Login(ctx, user, token); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Logout purges the persisted credential, clears the session and stops the
// watchdog.
func (m *Manager) Logout(ctx context.Context) error {
	m.clear(ctx)
	m.log.Info().Msg("logged out")
	return nil
}

func (m *Manager) clear(ctx context.Context) {
	if err := m.creds.Clear(ctx); err != nil {
		m.log.Warn().Err(err).Msg("clear persisted credential")
	}
	m.store.ClearSession()
	m.stopWatchdogLocked()
}

// IsAuthenticated reports whether an identity and a still-valid credential
// are present.
func (m *Manager) IsAuthenticated() bool {
	snap := m.store.State()
	return snap.User != nil && snap.Token != "" && m.codec.IsValid(snap.Token)
}

// IsAnonymous reports whether the current identity is a guest. False when
// no session exists.
func (m *Manager) IsAnonymous() bool {
	snap := m.store.State()
	return snap.User != nil && snap.User.Anonymous
}

// User returns the current identity, or nil.
func (m *Manager) User() *types.User {
	return m.store.State().User
}

// Snapshot returns the session store's current state.
func (m *Manager) Snapshot() Snapshot {
	return m.store.State()
}

// Close stops the watchdog. Part of process teardown.
func (m *Manager) Close() {
	m.stopWatchdogLocked()
}

// startWatchdog launches the expiry watchdog, first cancelling any prior
// one. At most one watchdog is alive at any time.
func (m *Manager) startWatchdog() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelWatchdog()

	stop := make(chan struct{})
	done := make(chan struct{})
	m.stopWatchdog = stop
	m.watchdogDone = done

	go m.runWatchdog(stop, done)
}

func (m *Manager) stopWatchdogLocked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelWatchdog()
}

// cancelWatchdog must be called with m.mu held.
func (m *Manager) cancelWatchdog() {
	if m.stopWatchdog != nil {
		close(m.stopWatchdog)
		<-m.watchdogDone
		m.stopWatchdog = nil
		m.watchdogDone = nil
	}
}

func (m *Manager) runWatchdog(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			token, err := m.creds.Token(ctx)
			expired := err != nil || !m.codec.IsValid(token)
			if expired {
				m.log.Info().Msg("watchdog: credential expired, logging out")
				// Same path a user-initiated logout takes, minus stopping
				// this goroutine from inside itself.
				if err := m.creds.Clear(ctx); err != nil {
					m.log.Warn().Err(err).Msg("clear persisted credential")
				}
				m.store.ClearSession()
			}
			cancel()
			if expired {
				// Exit without touching the manager's handle; a later
				// cancel sees the closed done channel and returns at once.
				return
			}
		case <-stop:
			return
		}
	}
}

func randomSuffix() (string, error) {
	buf := make([]byte, anonSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i, b := range buf {
		buf[i] = anonSuffixChars[int(b)%len(anonSuffixChars)]
	}
	return string(buf), nil
}
