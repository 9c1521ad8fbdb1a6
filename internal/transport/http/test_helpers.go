package http

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomrelay-server/internal/config"
	"github.com/vovakirdan/roomrelay-server/internal/core"
	"github.com/vovakirdan/roomrelay-server/internal/store"
	"github.com/vovakirdan/roomrelay-server/internal/store/sqlite"
)

// newTestServer builds the full stack (in-memory store, registry,
// router, gin engine) behind an httptest server.
func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := zerolog.Nop()
	registry := core.NewRegistry(&logger)
	router := core.NewRouter(registry, st, &logger)

	cfg := config.Default()
	cfg.Addr = ":0"

	server := NewServer(registry, router, st, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, st
}

// seedRoomAndUser creates one room and one user for relay tests.
func seedRoomAndUser(t *testing.T, st store.Store, roomName, username string) *store.Room {
	t.Helper()

	ctx := context.Background()
	room, err := st.CreateRoom(ctx, roomName)
	if err != nil {
		t.Fatalf("seed room: %v", err)
	}
	if _, err := st.CreateUser(ctx, username); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return room
}
