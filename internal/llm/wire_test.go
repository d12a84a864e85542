package llm

import (
	"encoding/json"
	"testing"

	"github.com/recrsn/mcpchat/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairToolCalls(t *testing.T) {
	getAnn := conversation.ToolCall{ID: "call_1", Name: "GetStudent", Arguments: json.RawMessage(`{"name":"Ann Lee"}`)}
	getBob := conversation.ToolCall{ID: "call_2", Name: "GetStudent", Arguments: json.RawMessage(`{"name":"Bob Ray"}`)}

	t.Run("synthesizes the announcing message", func(t *testing.T) {
		out := pairToolCalls([]conversation.Message{
			conversation.UserMessage("Tell me about Ann"),
			conversation.ToolMessage(getAnn, "{}"),
			conversation.AssistantMessage("Ann is in grade 7."),
		})
		require.Len(t, out, 4)
		assert.Equal(t, conversation.RoleAssistant, out[1].Role)
		assert.Empty(t, out[1].Content)
		assert.Equal(t, []conversation.ToolCall{getAnn}, out[1].ToolCalls)
		assert.Equal(t, conversation.RoleTool, out[2].Role)
		assert.Equal(t, "Ann is in grade 7.", out[3].Content)
	})

	t.Run("attaches calls to assistant text of the same round", func(t *testing.T) {
		in := []conversation.Message{
			conversation.UserMessage("Compare Ann and Bob"),
			conversation.AssistantMessage("Looking them up."),
			conversation.ToolMessage(getAnn, "{}"),
			conversation.ToolMessage(getBob, "{}"),
		}
		out := pairToolCalls(in)
		require.Len(t, out, 4)
		assert.Equal(t, "Looking them up.", out[1].Content)
		assert.Equal(t, []conversation.ToolCall{getAnn, getBob}, out[1].ToolCalls)
		assert.Empty(t, in[1].ToolCalls, "input must not be modified")
	})

	t.Run("keeps explicit announcements", func(t *testing.T) {
		out := pairToolCalls([]conversation.Message{
			conversation.UserMessage("Tell me about Ann"),
			conversation.AssistantMessage("", getAnn),
			conversation.ToolMessage(getAnn, "{}"),
		})
		require.Len(t, out, 3)
		assert.Equal(t, []conversation.ToolCall{getAnn}, out[1].ToolCalls)
	})

	t.Run("invents ids for bare tool messages", func(t *testing.T) {
		out := pairToolCalls([]conversation.Message{
			conversation.UserMessage("hi"),
			{Role: conversation.RoleTool, Content: "result"},
		})
		require.Len(t, out, 3)
		require.NotNil(t, out[2].Result)
		assert.Equal(t, "call_1", out[2].Result.CallID)
		assert.Equal(t, out[1].ToolCalls[0].ID, out[2].Result.CallID)
	})
}

func TestParametersOf(t *testing.T) {
	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, parametersOf(nil))

	params := parametersOf(json.RawMessage(`{"type":"object","properties":{"id":{"type":"integer"}},"required":["id"]}`))
	assert.Equal(t, []any{"id"}, params["required"])
	assert.Contains(t, params["properties"], "id")
}
