package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry maps room keys to the set of live member connections. It is
// the only shared mutable structure in the core; all structural
// mutation is serialized behind the mutex, while broadcast fan-out
// works on a snapshot so a slow send never blocks joins or leaves.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *zerolog.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]map[*Client]struct{}),
		log:   logger,
	}
}

// Join adds the client to the room's member set, creating the set if
// absent.
func (r *Registry) Join(roomKey string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomKey]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[roomKey] = members
	}
	members[c] = struct{}{}
}

// Leave removes the client from the room's member set. No-op if the
// client or room is already gone. Empty sets are reclaimed so dead room
// keys do not accumulate.
func (r *Registry) Leave(roomKey string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomKey]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, roomKey)
	}
}

// Members returns the current member count for a room.
func (r *Registry) Members(roomKey string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomKey])
}

// Broadcast delivers one frame to every member of the room except
// exclude, if given. The member set is snapshotted at call time:
// clients joining mid-fan-out do not receive the frame, clients
// leaving mid-fan-out get a best-effort send that is dropped on
// failure. Per-recipient failures are logged and never reach the
// caller.
func (r *Registry) Broadcast(roomKey string, frame any, exclude *Client) {
	r.mu.RLock()
	members := r.rooms[roomKey]
	snapshot := make([]*Client, 0, len(members))
	for c := range members {
		if c == exclude {
			continue
		}
		snapshot = append(snapshot, c)
	}
	r.mu.RUnlock()

	for _, c := range snapshot {
		if !c.Send(frame) {
			r.log.Debug().
				Str("client_id", c.ID).
				Str("room_id", roomKey).
				Msg("dropped frame for slow or closed client")
		}
	}
}
