package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vovakirdan/roomrelay-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRoomRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "standup")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.Name != "standup" {
		t.Errorf("expected name 'standup', got %q", room.Name)
	}
	if room.ID == uuid.Nil {
		t.Error("expected non-nil room id")
	}

	found, err := s.FindRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("FindRoom: %v", err)
	}
	if found.ID != room.ID || found.Name != room.Name {
		t.Errorf("found room mismatch: %+v vs %+v", found, room)
	}

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != room.ID {
		t.Errorf("unexpected room list: %+v", rooms)
	}
}

func TestFindRoomNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindRoom(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindUser(context.Background(), "nobody")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateMessageAndListAscending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "general")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	alice, err := s.CreateUser(ctx, "alice")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	values := []string{"first", "second", "third"}
	for _, v := range values {
		msg, err := s.CreateMessage(ctx, room.ID, alice.ID, v)
		if err != nil {
			t.Fatalf("CreateMessage(%q): %v", v, err)
		}
		if msg.Username != "alice" {
			t.Errorf("expected username 'alice', got %q", msg.Username)
		}
		if msg.CreatedAt.IsZero() {
			t.Error("expected write-time timestamp")
		}
	}

	messages, err := s.ListMessages(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != len(values) {
		t.Fatalf("expected %d messages, got %d", len(values), len(messages))
	}
	for i, msg := range messages {
		if msg.Value != values[i] {
			t.Errorf("expected %q at index %d, got %q", values[i], i, msg.Value)
		}
		if i > 0 && msg.CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Errorf("messages not in ascending order at index %d", i)
		}
	}
}

func TestListMessagesUnknownRoom(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ListMessages(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListMessagesEmptyRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "quiet")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	messages, err := s.ListMessages(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected empty list, got %d messages", len(messages))
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "alice"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateUser(ctx, "alice"); err == nil {
		t.Fatal("expected unique constraint error")
	}
}
