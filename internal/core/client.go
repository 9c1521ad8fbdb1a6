package core

import "sync"

// DefaultSendBuffer is the outbound queue depth per connection.
const DefaultSendBuffer = 16

// Client is one live connection as seen by the core layer. It is
// ephemeral: created on connect, discarded on disconnect, never
// persisted.
type Client struct {
	ID      string
	RoomKey string

	frames    chan any
	closed    chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client bound to a room key. buffer <= 0 falls
// back to DefaultSendBuffer.
func NewClient(id, roomKey string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:      id,
		RoomKey: roomKey,
		frames:  make(chan any, buffer),
		closed:  make(chan struct{}),
	}
}

// Send enqueues one outbound frame without blocking. It returns false
// when the client has closed or its buffer is full; the frame is then
// dropped, so a slow or dying receiver never stalls a broadcaster.
func (c *Client) Send(frame any) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.frames <- frame:
		return true
	default:
		return false
	}
}

// Frames is the receive side drained by the transport write loop.
func (c *Client) Frames() <-chan any {
	return c.frames
}

// Close marks the client as gone. Idempotent; safe to call from any
// termination path. Frames already queued are left for the write loop
// to drain or abandon.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}
