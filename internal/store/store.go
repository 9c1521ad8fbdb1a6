package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a room, user or message does not exist.
var ErrNotFound = errors.New("not found")

// Room is a named channel scoping chat history and signaling broadcast.
// The identifier is immutable once created.
type Room struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// User represents a chat participant known to storage.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// Message is a persisted chat message. Messages are created once and
// never mutated; retrieval order is timestamp ascending.
type Message struct {
	ID        int64
	RoomID    uuid.UUID
	UserID    int64
	Username  string
	Value     string
	CreatedAt time.Time
}

// Gateway is the persistence contract the relay core consumes.
// Any failure is treated by the core as a hard dispatch failure.
type Gateway interface {
	// FindRoom retrieves a room by ID, or ErrNotFound.
	FindRoom(ctx context.Context, id uuid.UUID) (*Room, error)

	// FindUser retrieves a user by username, or ErrNotFound.
	FindUser(ctx context.Context, username string) (*User, error)

	// CreateMessage persists one chat message; the timestamp is set at
	// write time.
	CreateMessage(ctx context.Context, roomID uuid.UUID, userID int64, value string) (*Message, error)
}

// RoomStore handles the room surface of the history API.
type RoomStore interface {
	// CreateRoom creates a room with a fresh UUID.
	CreateRoom(ctx context.Context, name string) (*Room, error)

	// ListRooms lists all rooms.
	ListRooms(ctx context.Context) ([]*Room, error)
}

// MessageStore handles message retrieval for the history API.
type MessageStore interface {
	// ListMessages returns a room's messages ordered by timestamp
	// ascending. Returns ErrNotFound if the room does not exist.
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]*Message, error)
}

// UserStore handles user records. Account management lives elsewhere;
// this exists so operator tooling can seed users.
type UserStore interface {
	// CreateUser creates a user with the given username.
	CreateUser(ctx context.Context, username string) (*User, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	Gateway
	RoomStore
	MessageStore
	UserStore

	// Close closes the underlying database connection.
	Close() error
}
