package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sketchroom/go-sketchroom/internal/credential"
	"github.com/sketchroom/go-sketchroom/internal/storage"
	"github.com/sketchroom/go-sketchroom/internal/types"
	"github.com/teris-io/shortid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned on a bad email/password pair. The
	// same error covers "no such account" so login failures don't leak
	// which addresses are registered.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an address that already
	// has an account.
	ErrEmailTaken = errors.New("email address already registered")
)

// AccountService implements registered-user signup and login against an
// account repository. Successful logins mint a registered credential via
// the codec; the session manager consumes the resulting (user, token) pair.
type AccountService struct {
	log   zerolog.Logger
	repo  storage.AccountRepository
	codec *credential.Codec
}

func NewAccountService(logger zerolog.Logger, repo storage.AccountRepository, codec *credential.Codec) *AccountService {
	return &AccountService{
		log:   logger.With().Str("component", "accounts").Logger(),
		repo:  repo,
		codec: codec,
	}
}

// Register creates an account and returns the new identity with a freshly
// minted registered credential.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (types.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return types.User{}, "", ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	id, err := shortid.Generate()
	if err != nil {
		return types.User{}, "", fmt.Errorf("generate account id: %w", err)
	}

	account, err := s.repo.CreateAccount(ctx, storage.CreateAccountParams{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return types.User{}, "", ErrEmailTaken
		}
		return types.User{}, "", fmt.Errorf("create account: %w", err)
	}

	user := types.User{ID: account.ID, Name: account.Name}
	token, err := s.codec.Encode(user.ID, user.Name, false, credential.KindRegistered)
	if err != nil {
		return types.User{}, "", fmt.Errorf("mint credential: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("account registered")
	return user, token, nil
}

// Login verifies the password and mints a registered credential.
func (s *AccountService) Login(ctx context.Context, email, password string) (types.User, string, error) {
	account, err := s.repo.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.User{}, "", ErrInvalidCredentials
		}
		return types.User{}, "", fmt.Errorf("fetch account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return types.User{}, "", ErrInvalidCredentials
	}

	user := types.User{ID: account.ID, Name: account.Name}
	token, err := s.codec.Encode(user.ID, user.Name, false, credential.KindRegistered)
	if err != nil {
		return types.User{}, "", fmt.Errorf("mint credential: %w", err)
	}

	return user, token, nil
}
