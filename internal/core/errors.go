package core

// Error codes for terminal dispatch failures. Any of these closes the
// originating connection: a chat frame referencing state the store
// does not know about means the session is inconsistent and cannot be
// safely continued.
const (
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeUserNotFound = "user_not_found"
	ErrCodePersistence  = "persistence_error"
)

// CoreError wraps a code, a human-readable message and the underlying
// cause.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string, err error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: err}
}
