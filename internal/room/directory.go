package room

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sketchroom/go-sketchroom/internal/storage"
	"github.com/sketchroom/go-sketchroom/internal/types"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	defaultMaxParticipants = 10

	// maxCodeAttempts bounds regeneration when the backing store reports a
	// code collision. The code space is 36^6, so hitting this bound means
	// something is broken, not unlucky.
	maxCodeAttempts = 5
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// Directory creates rooms and resolves joins against a backing store.
type Directory struct {
	log      zerolog.Logger
	repo     storage.RoomRepository
	validate *validator.Validate
}

func NewDirectory(logger zerolog.Logger, repo storage.RoomRepository) *Directory {
	return &Directory{
		log:      logger.With().Str("component", "directory").Logger(),
		repo:     repo,
		validate: validator.New(),
	}
}

// NormalizeCode maps arbitrary input to canonical room-code form: uppercase,
// non-alphanumerics stripped, capped at six characters. This is part of the
// directory's public contract because it defines code-matching semantics.
func NormalizeCode(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == codeLength {
			break
		}
	}
	return b.String()
}

// IsValidCode reports whether code is already in canonical form.
func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// generateCode draws each character uniformly from the code alphabet.
func generateCode() (string, error) {
	// Rejection sampling keeps the per-character draw uniform: 252 is the
	// largest multiple of 36 below 256.
	const limit = byte(252)

	code := make([]byte, 0, codeLength)
	buf := make([]byte, 1)
	for len(code) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		if buf[0] >= limit {
			continue
		}
		code = append(code, codeAlphabet[int(buf[0])%len(codeAlphabet)])
	}
	return string(code), nil
}

// normalizeCreateRequest trims free-text fields in place; length rules apply
// to the trimmed values.
func normalizeCreateRequest(req *types.CreateRoomRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
}

// ValidateCreateRequest returns every violation found in req. An empty slice
// means the request is valid.
func (d *Directory) ValidateCreateRequest(req types.CreateRoomRequest) []string {
	normalizeCreateRequest(&req)

	err := d.validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{"invalid room request"}
	}

	violations := make([]string, 0, len(ve))
	for _, fe := range ve {
		violations = append(violations, createRequestViolation(fe))
	}
	return violations
}

func createRequestViolation(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Name":
		switch fe.Tag() {
		case "required":
			return "Room name is required"
		case "min":
			return "Room name must be at least 3 characters"
		default:
			return "Room name must be less than 50 characters"
		}
	case "Description":
		return "Room description must be less than 200 characters"
	case "MaxParticipants":
		return "Room capacity must be between 2 and 50 participants"
	default:
		return fmt.Sprintf("%s failed validation (%s)", strings.ToLower(fe.StructField()), fe.Tag())
	}
}

// CreateRoom validates req and creates a room owned by creatorID. The room
// id is globally unique; the six-character code is drawn uniformly and
// regenerated if the backing store reports a collision.
func (d *Directory) CreateRoom(ctx context.Context, req types.CreateRoomRequest, creatorID string) (types.Room, error) {
	normalizeCreateRequest(&req)

	if violations := d.ValidateCreateRequest(req); len(violations) > 0 {
		return types.Room{}, &ValidationError{Violations: violations}
	}

	maxParticipants := req.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = defaultMaxParticipants
	}

	public := true
	if req.Public != nil {
		public = *req.Public
	}

	room := types.Room{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Description:     req.Description,
		CreatedBy:       creatorID,
		CreatedAt:       time.Now(),
		Participants:    []types.Participant{},
		MaxParticipants: maxParticipants,
		Active:          true,
		Public:          public,
	}

	for attempt := 1; ; attempt++ {
		code, err := generateCode()
		if err != nil {
			return types.Room{}, err
		}
		room.Code = code

		err = d.repo.SaveRoom(ctx, room)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrCodeTaken) {
			return types.Room{}, fmt.Errorf("save room: %w", err)
		}
		if attempt == maxCodeAttempts {
			return types.Room{}, fmt.Errorf("generate unique room code: gave up after %d attempts", attempt)
		}
		d.log.Warn().Str("code", code).Int("attempt", attempt).Msg("room code collision, regenerating")
	}

	d.log.Info().Str("room_id", room.ID).Str("code", room.Code).Str("created_by", creatorID).Msg("room created")
	return room, nil
}

// JoinByCode resolves code to a room and appends the joining participant.
// Joining a room the user is already in reactivates the existing membership
// instead of duplicating it, so the call is idempotent.
func (d *Directory) JoinByCode(ctx context.Context, code string, req types.JoinRoomRequest) (types.Room, error) {
	if err := d.validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			violations := make([]string, 0, len(ve))
			for _, fe := range ve {
				violations = append(violations, fmt.Sprintf("%s is required", strings.ToLower(fe.StructField())))
			}
			return types.Room{}, &ValidationError{Violations: violations}
		}
		return types.Room{}, err
	}

	normalized := NormalizeCode(code)
	if !IsValidCode(normalized) {
		return types.Room{}, ErrRoomNotFound
	}

	current, err := d.repo.RoomByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.Room{}, ErrRoomNotFound
		}
		return types.Room{}, fmt.Errorf("fetch room: %w", err)
	}

	// A returning member never counts against capacity: reactivating an
	// existing record cannot grow the roster.
	if !IsUserInRoom(current, req.UserID) && IsRoomFull(current) {
		return types.Room{}, ErrRoomFull
	}

	updated := AddParticipant(current, req)
	if err := d.repo.UpdateRoom(ctx, updated); err != nil {
		return types.Room{}, fmt.Errorf("update room: %w", err)
	}

	d.log.Info().Str("room_id", updated.ID).Str("code", updated.Code).Str("user_id", req.UserID).Msg("user joined room")
	return updated, nil
}

// SetParticipantActive updates a member's presence flag in the backing
// store, returning the updated room.
func (d *Directory) SetParticipantActive(ctx context.Context, roomID, userID string, active bool) (types.Room, error) {
	current, err := d.repo.RoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.Room{}, ErrRoomNotFound
		}
		return types.Room{}, fmt.Errorf("fetch room: %w", err)
	}

	updated := SetParticipantActive(current, userID, active)
	if err := d.repo.UpdateRoom(ctx, updated); err != nil {
		return types.Room{}, fmt.Errorf("update room: %w", err)
	}

	return updated, nil
}

// DeleteRoom removes a room. Only the creator may delete it.
func (d *Directory) DeleteRoom(ctx context.Context, roomID, userID string) error {
	current, err := d.repo.RoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("fetch room: %w", err)
	}

	if !IsRoomCreator(current, userID) {
		return ErrNotRoomCreator
	}

	if err := d.repo.DeleteRoom(ctx, roomID); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}

	d.log.Info().Str("room_id", roomID).Str("user_id", userID).Msg("room deleted")
	return nil
}

// RoomsByCreator lists the rooms a user has created.
func (d *Directory) RoomsByCreator(ctx context.Context, userID string) ([]types.Room, error) {
	rooms, err := d.repo.RoomsByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// RoomURL builds the shareable URL for a room code.
func RoomURL(baseURL, code string) string {
	return strings.TrimSuffix(baseURL, "/") + "/room/" + code
}
