package validate

import "fmt"

// Error is a validation failure caught before any SQL executes. The message
// names the offending value and the valid alternatives so the caller (often
// an LLM choosing its next tool call) can self-correct.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}
