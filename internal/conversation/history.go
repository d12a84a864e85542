// Package conversation holds the ordered, append-only message log of a chat
// session.
//
// Invariant: once appended a message is never edited, removed or reordered.
// Every snapshot is a prefix of every later snapshot.
package conversation

// History is the append-only conversation log. It is owned by a single
// session and is not safe for concurrent use.
type History struct {
	messages []Message
}

// NewHistory creates an empty history
func NewHistory() *History {
	return &History{}
}

// Append adds messages to the end of the history
func (h *History) Append(msgs ...Message) {
	for _, m := range msgs {
		h.messages = append(h.messages, m.clone())
	}
}

// Snapshot returns a copy of every committed message, oldest first
func (h *History) Snapshot() []Message {
	out := make([]Message, len(h.messages))
	for i, m := range h.messages {
		out[i] = m.clone()
	}
	return out
}

// Len returns the number of committed messages
func (h *History) Len() int {
	return len(h.messages)
}

// LastAssistant returns the most recent assistant message, if any
func (h *History) LastAssistant() (Message, bool) {
	return LastAssistant(h.messages)
}

// LastAssistant scans msgs from the end for an assistant message
func LastAssistant(msgs []Message) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleAssistant {
			return msgs[i].clone(), true
		}
	}
	return Message{}, false
}
