package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomrelay-server/internal/store"
)

// RoomHandlers provides HTTP handlers for the history API.
type RoomHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store: st,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MessageResponse represents one history entry.
type MessageResponse struct {
	Value    string `json:"value"`
	Username string `json:"username"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListRooms handles room listing.
// GET /rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, RoomResponse{
			ID:   room.ID.String(),
			Name: room.Name,
		})
	}
	c.JSON(http.StatusOK, response)
}

// CreateRoom handles room creation.
// POST /rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.store.CreateRoom(c.Request.Context(), req.Name)
	if err != nil {
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_id", room.ID.String()).Str("room_name", room.Name).Msg("room created")
	c.JSON(http.StatusCreated, RoomResponse{
		ID:   room.ID.String(),
		Name: room.Name,
	})
}

// ListMessages handles message history retrieval, ordered by timestamp
// ascending.
// GET /rooms/:room_id/messages
func (h *RoomHandlers) ListMessages(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	messages, err := h.store.ListMessages(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, MessageResponse{
			Value:    msg.Value,
			Username: msg.Username,
		})
	}
	c.JSON(http.StatusOK, response)
}
