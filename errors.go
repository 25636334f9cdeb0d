package powershell

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Execute after the session has been closed.
// Calling Execute on a closed session is a programming error, not a
// condition to recover from.
var ErrClosed = errors.New("powershell session has been closed")

// ErrEndedEarly is returned when the shell's output stream ends before
// the end-of-command marker appears. It means the subprocess died or
// became unresponsive; the session is unusable and should be closed.
// This is a stronger condition than a command failure.
var ErrEndedEarly = errors.New("powershell output stream ended too early")

// ExecutionError is returned when a command wrote to the standard
// error stream. The session remains usable; the caller may keep
// issuing commands.
type ExecutionError struct {
	// ErrorText is the raw text drained from stderr for the command.
	ErrorText string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf(
		"error while executing powershell commands:%s%s", lineSeparator, e.ErrorText)
}
