package llm

import (
	"encoding/json"
	"fmt"

	"github.com/recrsn/mcpchat/internal/conversation"
)

// pairToolCalls rewrites history into the shape provider APIs expect: every
// run of tool messages is preceded by an assistant message announcing the
// calls. History stores the call inside each tool result, so the announcing
// message is either the assistant text of the same round or synthesized.
func pairToolCalls(msgs []conversation.Message) []conversation.Message {
	out := make([]conversation.Message, 0, len(msgs)+2)
	for i := 0; i < len(msgs); {
		m := msgs[i]
		if m.Role != conversation.RoleTool {
			out = append(out, m)
			i++
			continue
		}

		j := i
		for j < len(msgs) && msgs[j].Role == conversation.RoleTool {
			j++
		}
		run := msgs[i:j]
		calls := make([]conversation.ToolCall, 0, len(run))
		for k, tm := range run {
			calls = append(calls, callOf(tm, i+k))
		}

		last := len(out) - 1
		switch {
		case last >= 0 && out[last].Role == conversation.RoleAssistant && len(out[last].ToolCalls) == 0:
			out[last].ToolCalls = calls
		case last >= 0 && out[last].Role == conversation.RoleAssistant:
			// already announced by the assistant message itself
		default:
			out = append(out, conversation.AssistantMessage("", calls...))
		}
		for k, tm := range run {
			if tm.Result == nil || tm.Result.CallID == "" {
				c := calls[k]
				tm.Result = &conversation.ToolResult{CallID: c.ID, Name: c.Name, Arguments: c.Arguments, Output: tm.Content}
			}
			out = append(out, tm)
		}
		i = j
	}
	return out
}

// callOf recovers the call a tool message answers, inventing a stable ID
// when the result does not carry one.
func callOf(m conversation.Message, pos int) conversation.ToolCall {
	var call conversation.ToolCall
	if m.Result != nil {
		call = m.Result.Call()
	}
	if call.ID == "" {
		call.ID = fmt.Sprintf("call_%d", pos)
	}
	return call
}

// arguments returns the raw arguments of a call as a JSON object string
func arguments(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

// parametersOf decodes a descriptor schema into a generic map, defaulting to
// an object schema without properties.
func parametersOf(raw json.RawMessage) map[string]any {
	params := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			params = map[string]any{}
		}
	}
	if _, ok := params["type"]; !ok {
		params["type"] = "object"
	}
	if _, ok := params["properties"]; !ok {
		params["properties"] = map[string]any{}
	}
	return params
}

// toolCallArguments validates arguments returned by a model
func toolCallArguments(name, raw string) (json.RawMessage, error) {
	if raw == "" {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid([]byte(raw)) {
		return nil, malformed("tool call %s has invalid JSON arguments", name)
	}
	return json.RawMessage(raw), nil
}
