package session

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sketchroom/go-sketchroom/internal/credential"
	"github.com/sketchroom/go-sketchroom/internal/storage"
	"github.com/sketchroom/go-sketchroom/internal/testutil"
	"github.com/sketchroom/go-sketchroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T) (*Manager, *Store, *credential.Codec, *storage.MemoryCredentialStore) {
	t.Helper()

	store := NewStore()
	codec := credential.NewCodec(testKey)
	creds := storage.NewMemoryCredentialStore()
	m := NewManager(testutil.TestLogger(t), store, codec, creds)
	t.Cleanup(m.Close)
	return m, store, codec, creds
}

func TestManagerInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("hydrates valid credential", func(t *testing.T) {
		m, _, codec, creds := newTestManager(t)

		token, err := codec.Encode("u1", "alice", false, credential.KindRegistered)
		require.NoError(t, err)
		require.NoError(t, creds.SetToken(ctx, token))

		require.NoError(t, m.Initialize(ctx))

		require.True(t, m.IsAuthenticated())
		user := m.User()
		require.NotNil(t, user)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "alice", user.Name)
		assert.False(t, user.Anonymous)
	})

	t.Run("purges expired credential", func(t *testing.T) {
		m, _, codec, creds := newTestManager(t)

		token, err := codec.Encode("u1", "alice", false, credential.KindRegistered)
		require.NoError(t, err)
		require.NoError(t, creds.SetToken(ctx, token))

		codec.SetClock(func() time.Time {
			return time.Now().Add(8 * 24 * time.Hour)
		})

		require.NoError(t, m.Initialize(ctx))

		assert.False(t, m.IsAuthenticated())
		_, err = creds.Token(ctx)
		assert.ErrorIs(t, err, storage.ErrNotFound, "expected expired credential purged")
	})

	t.Run("purges corrupt credential", func(t *testing.T) {
		m, _, _, creds := newTestManager(t)
		require.NoError(t, creds.SetToken(ctx, "not-a-credential"))

		require.NoError(t, m.Initialize(ctx))

		assert.False(t, m.IsAuthenticated())
		assert.Nil(t, m.User())
	})

	t.Run("no persisted credential", func(t *testing.T) {
		m, _, _, _ := newTestManager(t)

		require.NoError(t, m.Initialize(ctx))
		assert.False(t, m.IsAuthenticated())
	})

	t.Run("idempotent", func(t *testing.T) {
		m, _, codec, creds := newTestManager(t)

		token, err := codec.Encode("u1", "alice", false, credential.KindRegistered)
		require.NoError(t, err)
		require.NoError(t, creds.SetToken(ctx, token))

		require.NoError(t, m.Initialize(ctx))
		require.NoError(t, m.Initialize(ctx))

		assert.True(t, m.IsAuthenticated())
		assert.Equal(t, "u1", m.User().ID)
	})
}

func TestManagerLogin(t *testing.T) {
	ctx := context.Background()
	m, _, codec, creds := newTestManager(t)

	token, err := codec.Encode("u1", "alice", false, credential.KindRegistered)
	require.NoError(t, err)

	require.NoError(t, m.Login(ctx, types.User{ID: "u1", Name: "alice"}, token))

	assert.True(t, m.IsAuthenticated())
	assert.False(t, m.IsAnonymous())

	persisted, err := creds.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, persisted)

	cached, err := creds.CachedUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", cached.Name)
}

func TestManagerLoginAsGuest(t *testing.T) {
	ctx := context.Background()
	m, _, codec, _ := newTestManager(t)

	user, err := m.LoginAsGuest(ctx)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(user.ID, "anon_"))
	assert.Len(t, user.ID, len("anon_")+8)
	assert.Equal(t, "Guest "+strings.TrimPrefix(user.ID, "anon_"), user.Name)
	assert.True(t, user.Anonymous)

	assert.True(t, m.IsAuthenticated())
	assert.True(t, m.IsAnonymous())

	snap := m.Snapshot()
	decoded := codec.User(snap.Token)
	require.NotNil(t, decoded)
	assert.Equal(t, user.ID, decoded.ID)
	assert.True(t, decoded.Anonymous)
}

func TestManagerGuestIDsUnique(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newTestManager(t)

	a, err := m.LoginAsGuest(ctx)
	require.NoError(t, err)
	b, err := m.LoginAsGuest(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestManagerLogout(t *testing.T) {
	ctx := context.Background()
	m, store, _, creds := newTestManager(t)

	_, err := m.LoginAsGuest(ctx)
	require.NoError(t, err)
	require.True(t, m.IsAuthenticated())

	require.NoError(t, m.Logout(ctx))

	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.User())
	assert.Empty(t, store.State().Token)

	_, err = creds.Token(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestManagerLoginPersistFailure(t *testing.T) {
	creds := &storage.MockCredentialStore{}
	defer creds.AssertExpectations(t)
	creds.On("SetToken", mock.Anything, "tok").Return(errors.New("disk full"))

	store := NewStore()
	m := NewManager(testutil.TestLogger(t), store, credential.NewCodec(testKey), creds)
	t.Cleanup(m.Close)

	err := m.Login(context.Background(), types.User{ID: "u1", Name: "alice"}, "tok")
	assert.ErrorContains(t, err, "persist token")
	assert.Nil(t, store.State().User, "expected no session when the credential could not persist")
}

func TestManagerInitializeReadFailure(t *testing.T) {
	creds := &storage.MockCredentialStore{}
	defer creds.AssertExpectations(t)
	creds.On("Token", mock.Anything).Return("", errors.New("backend down"))
	creds.On("Clear", mock.Anything).Return(nil)

	store := NewStore()
	m := NewManager(testutil.TestLogger(t), store, credential.NewCodec(testKey), creds)
	t.Cleanup(m.Close)

	require.NoError(t, m.Initialize(context.Background()), "expected an unreadable credential to leave the session unauthenticated, not fail startup")
	assert.False(t, m.IsAuthenticated())
	creds.AssertCalled(t, "Clear", mock.Anything)
}

func TestManagerIsAuthenticatedExpiredToken(t *testing.T) {
	ctx := context.Background()
	m, _, codec, _ := newTestManager(t)

	_, err := m.LoginAsGuest(ctx)
	require.NoError(t, err)
	require.True(t, m.IsAuthenticated())

	codec.SetClock(func() time.Time {
		return time.Now().Add(25 * time.Hour)
	})

	assert.False(t, m.IsAuthenticated(), "expected expiry to end authentication")
}

func TestManagerWatchdogLogsOutOnExpiry(t *testing.T) {
	ctx := context.Background()
	m, _, codec, creds := newTestManager(t)
	m.SetWatchdogInterval(10 * time.Millisecond)

	// The watchdog reads the clock concurrently, so the shift goes through an
	// atomic installed before the watchdog starts.
	var offset atomic.Int64
	codec.SetClock(func() time.Time {
		return time.Now().Add(time.Duration(offset.Load()))
	})

	_, err := m.LoginAsGuest(ctx)
	require.NoError(t, err)
	require.True(t, m.IsAuthenticated())

	offset.Store(int64(25 * time.Hour))

	require.Eventually(t, func() bool {
		return m.User() == nil
	}, time.Second, 5*time.Millisecond, "expected watchdog to clear the session")

	_, err = creds.Token(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
