package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/roomrelay-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	username   TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    TEXT NOT NULL,
	user_id    INTEGER NOT NULL,
	value      TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (room_id) REFERENCES rooms(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function
// after the schema is applied. Useful for tests to seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== Gateway implementation ====

// FindRoom retrieves a room by ID.
func (s *SQLiteStore) FindRoom(ctx context.Context, id uuid.UUID) (*store.Room, error) {
	query := `
		SELECT id, name, created_at
		FROM rooms
		WHERE id = ?
	`
	var (
		room  store.Room
		rawID string
	)
	err := s.db.QueryRowContext(ctx, query, id.String()).Scan(&rawID, &room.Name, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select room: %w", err)
	}

	room.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse room id: %w", err)
	}
	return &room, nil
}

// FindUser retrieves a user by username.
func (s *SQLiteStore) FindUser(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, created_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

// CreateMessage persists one chat message with a write-time timestamp.
func (s *SQLiteStore) CreateMessage(ctx context.Context, roomID uuid.UUID, userID int64, value string) (*store.Message, error) {
	query := `
		INSERT INTO messages (room_id, user_id, value, created_at)
		VALUES (?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query, roomID.String(), userID, value, now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getMessageByID(ctx, id)
}

func (s *SQLiteStore) getMessageByID(ctx context.Context, id int64) (*store.Message, error) {
	query := `
		SELECT m.id, m.room_id, m.user_id, u.username, m.value, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.id = ?
	`
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select message: %w", err)
	}
	return msg, nil
}

// ==== RoomStore implementation ====

// CreateRoom creates a room with a fresh UUID.
func (s *SQLiteStore) CreateRoom(ctx context.Context, name string) (*store.Room, error) {
	query := `
		INSERT INTO rooms (id, name)
		VALUES (?, ?)
	`
	id := uuid.New()
	if _, err := s.db.ExecContext(ctx, query, id.String(), name); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	return s.FindRoom(ctx, id)
}

// ListRooms lists all rooms.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	query := `
		SELECT id, name, created_at
		FROM rooms
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*store.Room, 0)
	for rows.Next() {
		var (
			room  store.Room
			rawID string
		)
		if err := rows.Scan(&rawID, &room.Name, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		room.ID, err = uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse room id: %w", err)
		}
		rooms = append(rooms, &room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

// ==== MessageStore implementation ====

// ListMessages returns a room's messages ordered by timestamp ascending.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID uuid.UUID) ([]*store.Message, error) {
	// The history API distinguishes an unknown room from an empty one.
	if _, err := s.FindRoom(ctx, roomID); err != nil {
		return nil, err
	}

	query := `
		SELECT m.id, m.room_id, m.user_id, u.username, m.value, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = ?
		ORDER BY m.created_at ASC, m.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID.String())
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// ==== UserStore implementation ====

// CreateUser creates a user with the given username.
func (s *SQLiteStore) CreateUser(ctx context.Context, username string) (*store.User, error) {
	query := `
		INSERT INTO users (username)
		VALUES (?)
	`
	if _, err := s.db.ExecContext(ctx, query, username); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.FindUser(ctx, username)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*store.Message, error) {
	var (
		msg   store.Message
		rawID string
	)
	if err := row.Scan(&msg.ID, &rawID, &msg.UserID, &msg.Username, &msg.Value, &msg.CreatedAt); err != nil {
		return nil, err
	}
	roomID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse room id: %w", err)
	}
	msg.RoomID = roomID
	return &msg, nil
}
