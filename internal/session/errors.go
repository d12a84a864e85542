package session

import (
	"errors"
	"fmt"
)

var (
	// ErrToolExecution means a tool ran but failed, or rejected its arguments
	ErrToolExecution = errors.New("tool execution error")

	// ErrToolRoundLimit means the model kept requesting tools past the
	// configured number of rounds in a single turn
	ErrToolRoundLimit = errors.New("tool round limit exceeded")

	// ErrToolDenied means the user refused a tool call
	ErrToolDenied = errors.New("tool call denied")

	// ErrClosed is returned by Submit after the session has closed
	ErrClosed = errors.New("session closed")
)

// TurnError reports a failed turn. The session stays usable.
type TurnError struct {
	Turn int
	Err  error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn %d: %v", e.Turn, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }
