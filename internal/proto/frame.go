package proto

import (
	"encoding/json"
	"fmt"
)

// Actions a client may put in an inbound frame.
const (
	ActionChat         = "chat"
	ActionOffer        = "offer"
	ActionAnswer       = "answer"
	ActionICECandidate = "ice-candidate"
)

// Frame is the envelope for messages coming from the client.
// Required fields depend on Action; see Validate.
type Frame struct {
	Action   string          `json:"action"`
	Username string          `json:"username"`
	Message  string          `json:"message,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Decode parses one raw frame. It does not validate per-action fields;
// callers decide whether an invalid frame is dropped or fatal.
func Decode(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &f, nil
}

// IsSignal reports whether the action is one of the relayed
// WebRTC negotiation payloads.
func (f *Frame) IsSignal() bool {
	switch f.Action {
	case ActionOffer, ActionAnswer, ActionICECandidate:
		return true
	}
	return false
}

// Validate checks the per-action required fields.
func (f *Frame) Validate() error {
	switch f.Action {
	case ActionChat:
		if f.Message == "" {
			return fmt.Errorf("chat frame: %w", missingField("message"))
		}
		if f.Username == "" {
			return fmt.Errorf("chat frame: %w", missingField("username"))
		}
	case ActionOffer, ActionAnswer, ActionICECandidate:
		if len(f.Data) == 0 {
			return fmt.Errorf("%s frame: %w", f.Action, missingField("data"))
		}
		if f.Username == "" {
			return fmt.Errorf("%s frame: %w", f.Action, missingField("username"))
		}
	case "":
		return missingField("action")
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, f.Action)
	}
	return nil
}

// ChatOutbound is delivered to room members for a persisted chat message.
type ChatOutbound struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// SignalOutbound is delivered to room members for a relayed signaling payload.
// Data passes through verbatim.
type SignalOutbound struct {
	Action   string          `json:"action"`
	Data     json.RawMessage `json:"data"`
	Username string          `json:"username"`
}
