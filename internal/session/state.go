package session

// State is a position in the session state machine
type State int

const (
	// AwaitingInput waits for the next line from the user
	AwaitingInput State = iota
	// Dispatching sends the conversation to the backend
	Dispatching
	// Accumulating folds response fragments and runs requested tools
	Accumulating
	// Committing appends the finished turn to history
	Committing
	// Closed is terminal
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting-input"
	case Dispatching:
		return "dispatching"
	case Accumulating:
		return "accumulating"
	case Committing:
		return "committing"
	case Closed:
		return "closed"
	}
	return "unknown"
}
