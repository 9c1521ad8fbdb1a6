package proto

import "errors"

// ErrUnknownAction marks a frame whose action is not part of the protocol.
// Such frames are dropped, never fatal, so new actions can roll out ahead
// of server upgrades.
var ErrUnknownAction = errors.New("unknown action")

type missingFieldError string

func (e missingFieldError) Error() string {
	return "missing required field " + string(e)
}

func missingField(field string) error {
	return missingFieldError(field)
}
