package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomrelay-server/internal/proto"
	"github.com/vovakirdan/roomrelay-server/internal/store"
)

type fakeGateway struct {
	rooms    map[uuid.UUID]*store.Room
	users    map[string]*store.User
	messages []*store.Message

	createErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		rooms: make(map[uuid.UUID]*store.Room),
		users: make(map[string]*store.User),
	}
}

func (g *fakeGateway) FindRoom(_ context.Context, id uuid.UUID) (*store.Room, error) {
	room, ok := g.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return room, nil
}

func (g *fakeGateway) FindUser(_ context.Context, username string) (*store.User, error) {
	user, ok := g.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (g *fakeGateway) CreateMessage(_ context.Context, roomID uuid.UUID, userID int64, value string) (*store.Message, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	msg := &store.Message{
		ID:     int64(len(g.messages) + 1),
		RoomID: roomID,
		UserID: userID,
		Value:  value,
	}
	g.messages = append(g.messages, msg)
	return msg, nil
}

type routerFixture struct {
	router  *Router
	gateway *fakeGateway
	roomID  uuid.UUID
	sender  *Client
	peer    *Client
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	logger := zerolog.Nop()
	registry := NewRegistry(&logger)
	gateway := newFakeGateway()

	roomID := uuid.New()
	gateway.rooms[roomID] = &store.Room{ID: roomID, Name: "general"}
	gateway.users["alice"] = &store.User{ID: 1, Username: "alice"}

	sender := NewClient("a", roomID.String(), 0)
	peer := NewClient("b", roomID.String(), 0)
	registry.Join(roomID.String(), sender)
	registry.Join(roomID.String(), peer)

	return &routerFixture{
		router:  NewRouter(registry, gateway, &logger),
		gateway: gateway,
		roomID:  roomID,
		sender:  sender,
		peer:    peer,
	}
}

func TestChatPersistsThenBroadcasts(t *testing.T) {
	fx := newRouterFixture(t)

	raw := []byte(`{"action":"chat","username":"alice","message":"hi"}`)
	if err := fx.router.Dispatch(context.Background(), fx.sender, raw); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(fx.gateway.messages) != 1 {
		t.Fatalf("expected exactly one persisted message, got %d", len(fx.gateway.messages))
	}
	if got := fx.gateway.messages[0]; got.Value != "hi" || got.UserID != 1 || got.RoomID != fx.roomID {
		t.Fatalf("unexpected persisted message: %+v", got)
	}

	// Both sender and peer receive the chat frame.
	for _, c := range []*Client{fx.sender, fx.peer} {
		frame := recvFrame(t, c)
		chat, ok := frame.(proto.ChatOutbound)
		if !ok {
			t.Fatalf("client %s: unexpected frame type %T", c.ID, frame)
		}
		if chat.Message != "hi" || chat.Username != "alice" {
			t.Fatalf("client %s: unexpected payload %+v", c.ID, chat)
		}
	}
}

func TestChatUnknownRoomTerminates(t *testing.T) {
	fx := newRouterFixture(t)

	orphan := NewClient("x", uuid.NewString(), 0)
	raw := []byte(`{"action":"chat","username":"alice","message":"hi"}`)

	err := fx.router.Dispatch(context.Background(), orphan, raw)
	var coreErr *CoreError
	if !errors.As(err, &coreErr) || coreErr.Code != ErrCodeRoomNotFound {
		t.Fatalf("expected room_not_found, got %v", err)
	}

	if len(fx.gateway.messages) != 0 {
		t.Fatalf("expected zero persisted messages, got %d", len(fx.gateway.messages))
	}
	assertNoFrame(t, fx.sender)
	assertNoFrame(t, fx.peer)
}

func TestChatUnknownUserTerminates(t *testing.T) {
	fx := newRouterFixture(t)

	raw := []byte(`{"action":"chat","username":"mallory","message":"hi"}`)
	err := fx.router.Dispatch(context.Background(), fx.sender, raw)

	var coreErr *CoreError
	if !errors.As(err, &coreErr) || coreErr.Code != ErrCodeUserNotFound {
		t.Fatalf("expected user_not_found, got %v", err)
	}
	if len(fx.gateway.messages) != 0 {
		t.Fatalf("expected zero persisted messages, got %d", len(fx.gateway.messages))
	}
	assertNoFrame(t, fx.peer)
}

func TestChatPersistenceErrorTerminates(t *testing.T) {
	fx := newRouterFixture(t)
	fx.gateway.createErr = fmt.Errorf("disk full")

	raw := []byte(`{"action":"chat","username":"alice","message":"hi"}`)
	err := fx.router.Dispatch(context.Background(), fx.sender, raw)

	var coreErr *CoreError
	if !errors.As(err, &coreErr) || coreErr.Code != ErrCodePersistence {
		t.Fatalf("expected persistence_error, got %v", err)
	}
	assertNoFrame(t, fx.sender)
	assertNoFrame(t, fx.peer)
}

func TestSignalRelayedVerbatimNeverPersisted(t *testing.T) {
	fx := newRouterFixture(t)

	for _, action := range []string{"offer", "answer", "ice-candidate"} {
		raw := []byte(`{"action":"` + action + `","username":"alice","data":{"sdp":"v=0"}}`)
		if err := fx.router.Dispatch(context.Background(), fx.sender, raw); err != nil {
			t.Fatalf("dispatch %s: %v", action, err)
		}

		for _, c := range []*Client{fx.sender, fx.peer} {
			frame := recvFrame(t, c)
			sig, ok := frame.(proto.SignalOutbound)
			if !ok {
				t.Fatalf("client %s: unexpected frame type %T", c.ID, frame)
			}
			if sig.Action != action || sig.Username != "alice" || string(sig.Data) != `{"sdp":"v=0"}` {
				t.Fatalf("client %s: unexpected payload %+v", c.ID, sig)
			}
		}
	}

	if len(fx.gateway.messages) != 0 {
		t.Fatalf("signaling must never persist, got %d messages", len(fx.gateway.messages))
	}
}

func TestSignalWorksForUnknownUsername(t *testing.T) {
	// Signaling skips the gateway entirely, so an unknown username is
	// relayed as-is.
	fx := newRouterFixture(t)

	raw := []byte(`{"action":"offer","username":"ghost","data":{"sdp":"v=0"}}`)
	if err := fx.router.Dispatch(context.Background(), fx.sender, raw); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	frame := recvFrame(t, fx.peer)
	if sig, ok := frame.(proto.SignalOutbound); !ok || sig.Username != "ghost" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestInvalidFramesDroppedSilently(t *testing.T) {
	fx := newRouterFixture(t)

	cases := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"action":`},
		{"unknown action", `{"action":"poke","username":"alice"}`},
		{"chat missing message", `{"action":"chat","username":"alice"}`},
		{"chat missing username", `{"action":"chat","message":"hi"}`},
		{"offer missing data", `{"action":"offer","username":"alice"}`},
		{"no action", `{"username":"alice"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := fx.router.Dispatch(context.Background(), fx.sender, []byte(tc.raw)); err != nil {
				t.Fatalf("expected drop, got error: %v", err)
			}
			if len(fx.gateway.messages) != 0 {
				t.Fatalf("expected zero persisted messages, got %d", len(fx.gateway.messages))
			}
			assertNoFrame(t, fx.sender)
			assertNoFrame(t, fx.peer)
		})
	}
}
