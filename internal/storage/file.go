package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sketchroom/go-sketchroom/internal/types"
)

const credentialFileName = "credential.json"

// credentialFile is the on-disk shape: the token under its well-known key
// plus the parallel cached-user key.
type credentialFile struct {
	Token string      `json:"auth-token,omitempty"`
	User  *types.User `json:"auth-user,omitempty"`
}

// FileCredentialStore persists the session credential as a JSON file in a
// directory, the desktop analogue of browser local storage. Writes replace
// the whole file; reads of a missing file report ErrNotFound.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
}

func NewFileCredentialStore(dir string) (*FileCredentialStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create credential dir: %w", err)
	}

	return &FileCredentialStore{path: filepath.Join(dir, credentialFileName)}, nil
}

func (s *FileCredentialStore) read() (credentialFile, error) {
	var cf credentialFile

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cf, nil
		}
		return cf, fmt.Errorf("read credential file: %w", err)
	}

	if err := json.Unmarshal(data, &cf); err != nil {
		// A corrupt file is treated as no credential, not an error.
		return credentialFile{}, nil
	}
	return cf, nil
}

func (s *FileCredentialStore) write(cf credentialFile) error {
	data, err := json.Marshal(cf)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileCredentialStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return err
	}
	cf.Token = token
	return s.write(cf)
}

func (s *FileCredentialStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return "", err
	}
	if cf.Token == "" {
		return "", ErrNotFound
	}
	return cf.Token, nil
}

func (s *FileCredentialStore) SetCachedUser(_ context.Context, user types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return err
	}
	cf.User = &user
	return s.write(cf)
}

func (s *FileCredentialStore) CachedUser(_ context.Context) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return types.User{}, err
	}
	if cf.User == nil {
		return types.User{}, ErrNotFound
	}
	return *cf.User, nil
}

func (s *FileCredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}
