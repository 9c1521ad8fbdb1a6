package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomrelay-server/internal/proto"
	"github.com/vovakirdan/roomrelay-server/internal/store"
)

// Router classifies inbound frames and dispatches them. Chat frames go
// through the persistence gateway before any broadcast so no peer ever
// sees a message that was not durably stored. Signaling frames are
// relayed verbatim and never persisted.
type Router struct {
	registry *Registry
	gateway  store.Gateway
	log      *zerolog.Logger
}

// NewRouter constructs a router over the given registry and gateway.
func NewRouter(registry *Registry, gateway store.Gateway, logger *zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		gateway:  gateway,
		log:      logger,
	}
}

// Dispatch processes one raw inbound frame from a client. A nil return
// keeps the connection open; malformed or unknown frames are dropped
// with a diagnostic. A non-nil return is terminal: the transport must
// close the connection.
func (rt *Router) Dispatch(ctx context.Context, c *Client, raw []byte) error {
	frame, err := proto.Decode(raw)
	if err != nil {
		rt.log.Warn().Err(err).
			Str("client_id", c.ID).
			Str("room_id", c.RoomKey).
			Msg("dropping malformed frame")
		return nil
	}

	if err := frame.Validate(); err != nil {
		if errors.Is(err, proto.ErrUnknownAction) {
			// Forward-compatible no-op.
			rt.log.Debug().
				Str("client_id", c.ID).
				Str("action", frame.Action).
				Msg("dropping frame with unknown action")
		} else {
			rt.log.Warn().Err(err).
				Str("client_id", c.ID).
				Str("action", frame.Action).
				Msg("dropping invalid frame")
		}
		return nil
	}

	if frame.IsSignal() {
		rt.registry.Broadcast(c.RoomKey, proto.SignalOutbound{
			Action:   frame.Action,
			Data:     frame.Data,
			Username: frame.Username,
		}, nil)
		return nil
	}

	return rt.dispatchChat(ctx, c, frame)
}

func (rt *Router) dispatchChat(ctx context.Context, c *Client, frame *proto.Frame) error {
	roomID, err := uuid.Parse(c.RoomKey)
	if err != nil {
		return coreError(ErrCodeRoomNotFound, fmt.Sprintf("invalid room key %q", c.RoomKey), err)
	}

	room, err := rt.gateway.FindRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return coreError(ErrCodeRoomNotFound, fmt.Sprintf("room %s not found", roomID), err)
		}
		return coreError(ErrCodePersistence, "find room", err)
	}

	user, err := rt.gateway.FindUser(ctx, frame.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return coreError(ErrCodeUserNotFound, fmt.Sprintf("user %q not found", frame.Username), err)
		}
		return coreError(ErrCodePersistence, "find user", err)
	}

	msg, err := rt.gateway.CreateMessage(ctx, room.ID, user.ID, frame.Message)
	if err != nil {
		return coreError(ErrCodePersistence, "create message", err)
	}

	// Persisted; now fan out to the whole room, sender included.
	rt.registry.Broadcast(c.RoomKey, proto.ChatOutbound{
		Message:  msg.Value,
		Username: user.Username,
	}, nil)

	rt.log.Debug().
		Str("client_id", c.ID).
		Str("room_id", c.RoomKey).
		Str("username", user.Username).
		Int64("message_id", msg.ID).
		Msg("chat message dispatched")
	return nil
}
