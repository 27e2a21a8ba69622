package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sketchroom/go-sketchroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCredentialStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		store, err := NewFileCredentialStore(t.TempDir())
		require.NoError(t, err)

		_, err = store.Token(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.CachedUser(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileCredentialStore(dir)
		require.NoError(t, err)

		require.NoError(t, store.SetToken(ctx, "tok"))
		require.NoError(t, store.SetCachedUser(ctx, types.User{ID: "u1", Name: "alice"}))

		token, err := store.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok", token)

		user, err := store.CachedUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Name)

		// Reopening the same directory sees the persisted credential.
		reopened, err := NewFileCredentialStore(dir)
		require.NoError(t, err)
		token, err = reopened.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok", token)
	})

	t.Run("file shape", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileCredentialStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.SetToken(ctx, "tok"))

		data, err := os.ReadFile(filepath.Join(dir, "credential.json"))
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Contains(t, raw, "auth-token")
	})

	t.Run("corrupt file treated as empty", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileCredentialStore(dir)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "credential.json"), []byte("{not json"), 0o600))

		_, err = store.Token(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, store.SetToken(ctx, "tok"))
		token, err := store.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok", token)
	})

	t.Run("clear", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileCredentialStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.SetToken(ctx, "tok"))

		require.NoError(t, store.Clear(ctx))

		_, err = store.Token(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoFileExists(t, filepath.Join(dir, "credential.json"))

		assert.NoError(t, store.Clear(ctx), "expected clearing twice to succeed")
	})
}
