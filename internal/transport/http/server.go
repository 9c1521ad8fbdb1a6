package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomrelay-server/internal/config"
	"github.com/vovakirdan/roomrelay-server/internal/core"
	"github.com/vovakirdan/roomrelay-server/internal/store"
)

// NewServer builds the HTTP server: history API, health check and the
// WebSocket relay endpoint.
func NewServer(registry *core.Registry, router *core.Router, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(logger))

	engine.GET("/health", healthHandler)

	rooms := NewRoomHandlers(st, logger)
	engine.GET("/rooms", rooms.ListRooms)
	engine.POST("/rooms", rooms.CreateRoom)
	engine.GET("/rooms/:room_id/messages", rooms.ListMessages)

	ws := NewWSHandler(registry, router, cfg.SendBuffer, logger)
	engine.GET("/ws/chat/:room_id", ws.Handle)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
