package conversation

import "encoding/json"

// Role identifies the author of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolResult is the structured payload of a tool-role message. It carries the
// originating call so a tool message is meaningful on its own.
type ToolResult struct {
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Output    string          `json:"output"`
}

// Message is one entry of the conversation history
type Message struct {
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	ToolCalls []ToolCall  `json:"tool_calls,omitempty"`
	Result    *ToolResult `json:"result,omitempty"`
}

// UserMessage creates a user message
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant message
func AssistantMessage(text string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// ToolMessage creates a tool message holding the result of call
func ToolMessage(call ToolCall, output string) Message {
	return Message{
		Role:    RoleTool,
		Content: output,
		Result: &ToolResult{
			CallID:    call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
			Output:    output,
		},
	}
}

// Call returns the tool call a tool message answers.
func (r ToolResult) Call() ToolCall {
	return ToolCall{ID: r.CallID, Name: r.Name, Arguments: r.Arguments}
}

// clone returns a deep copy so stored messages cannot be edited through
// slices shared with callers.
func (m Message) clone() Message {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, c := range m.ToolCalls {
			out.ToolCalls[i] = c
			out.ToolCalls[i].Arguments = cloneRaw(c.Arguments)
		}
	}
	if m.Result != nil {
		r := *m.Result
		r.Arguments = cloneRaw(r.Arguments)
		out.Result = &r
	}
	return out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
