package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomrelay-server/internal/core"
	"github.com/vovakirdan/roomrelay-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	registry   *core.Registry
	router     *core.Router
	sendBuffer int
	log        *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(registry *core.Registry, router *core.Router, sendBuffer int, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		registry:   registry,
		router:     router,
		sendBuffer: sendBuffer,
		log:        logger,
	}
}

// Handle serves GET /ws/chat/:room_id. The room identifier is the
// 36-character UUID segment of the path.
func (h *WSHandler) Handle(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("room_id"))
	if err != nil {
		c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(utils.NewID(), roomID.String(), h.sendBuffer)

	// Register before reading the first frame so a join can never lose
	// a broadcast that races the connection setup.
	h.registry.Join(client.RoomKey, client)
	defer func() {
		h.registry.Leave(client.RoomKey, client)
		client.Close()
	}()

	h.log.Debug().
		Str("client_id", client.ID).
		Str("room_id", client.RoomKey).
		Msg("client connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"

	var coreErr *core.CoreError
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		err = nil
	case errors.As(err, &coreErr):
		// Referential or persistence failure: fail closed.
		status = websocket.StatusPolicyViolation
		reason = coreErr.Code
		h.log.Warn().Err(err).
			Str("client_id", client.ID).
			Str("room_id", client.RoomKey).
			Msg("terminating connection")
	default:
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "internal error"
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
	h.log.Debug().
		Str("client_id", client.ID).
		Str("room_id", client.RoomKey).
		Msg("client disconnected")
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		// Frames are processed one at a time, in arrival order.
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if err := h.router.Dispatch(ctx, client, raw); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case frame := <-client.Frames():
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
