package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sketchroom/go-sketchroom/internal/types"
)

// PgStore is a postgres-backed RoomRepository and AccountRepository for
// deployments where rooms outlive a single process. Participants are stored
// as a jsonb column since the roster is always read and replaced as a whole.
type PgStore struct {
	conn *sql.DB
}

func NewPgStore(dsn string) (*PgStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgStore{conn: db}, nil
}

func (db *PgStore) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (db *PgStore) SaveRoom(ctx context.Context, room types.Room) error {
	participants, err := json.Marshal(room.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		"INSERT INTO rooms (id, code, name, description, created_by, created_at, participants, max_participants, is_active, is_public) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		room.ID,
		room.Code,
		room.Name,
		room.Description,
		room.CreatedBy,
		room.CreatedAt,
		participants,
		room.MaxParticipants,
		room.Active,
		room.Public,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("insert room: %w", err)
	}

	return nil
}

func (db *PgStore) UpdateRoom(ctx context.Context, room types.Room) error {
	participants, err := json.Marshal(room.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}

	res, err := db.conn.ExecContext(ctx,
		"UPDATE rooms SET name = $2, description = $3, participants = $4, max_participants = $5, is_active = $6, is_public = $7 "+
			"WHERE id = $1",
		room.ID,
		room.Name,
		room.Description,
		participants,
		room.MaxParticipants,
		room.Active,
		room.Public,
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (db *PgStore) scanRoom(row *sql.Row) (types.Room, error) {
	var room types.Room
	var participants []byte

	err := row.Scan(
		&room.ID,
		&room.Code,
		&room.Name,
		&room.Description,
		&room.CreatedBy,
		&room.CreatedAt,
		&participants,
		&room.MaxParticipants,
		&room.Active,
		&room.Public,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Room{}, ErrNotFound
		}
		return types.Room{}, err
	}

	if err := json.Unmarshal(participants, &room.Participants); err != nil {
		return types.Room{}, fmt.Errorf("unmarshal participants: %w", err)
	}

	return room, nil
}

const roomColumns = "id, code, name, description, created_by, created_at, participants, max_participants, is_active, is_public"

func (db *PgStore) RoomByID(ctx context.Context, id string) (types.Room, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE id = $1 LIMIT 1", id)
	return db.scanRoom(row)
}

func (db *PgStore) RoomByCode(ctx context.Context, code string) (types.Room, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE code = $1 LIMIT 1", code)
	return db.scanRoom(row)
}

func (db *PgStore) RoomsByCreator(ctx context.Context, userID string) ([]types.Room, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE created_by = $1 ORDER BY created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []types.Room
	for rows.Next() {
		var room types.Room
		var participants []byte

		err := rows.Scan(
			&room.ID,
			&room.Code,
			&room.Name,
			&room.Description,
			&room.CreatedBy,
			&room.CreatedAt,
			&participants,
			&room.MaxParticipants,
			&room.Active,
			&room.Public,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(participants, &room.Participants); err != nil {
			return nil, fmt.Errorf("unmarshal participants: %w", err)
		}

		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (db *PgStore) DeleteRoom(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM rooms WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (db *PgStore) CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error) {
	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO accounts (id, username, email, password_hash, created_at) "+
			"VALUES ($1, $2, lower($3), $4, now()) RETURNING id, username, email, password_hash, created_at",
		params.ID,
		params.Name,
		params.Email,
		params.PasswordHash,
	)

	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, err
	}

	return a, nil
}

func (db *PgStore) AccountByEmail(ctx context.Context, email string) (Account, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM accounts "+
			"WHERE email = lower($1) LIMIT 1",
		email,
	)

	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}

	return a, nil
}

func (db *PgStore) AccountByID(ctx context.Context, id string) (Account, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}

	return a, nil
}
