package llm

import (
	"context"

	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/conversation"
	"github.com/samber/lo"
)

// OpenAIBackend streams completions from an OpenAI compatible endpoint. It
// serves both OpenAI and Azure OpenAI; they differ only in url and auth.
type OpenAIBackend struct {
	name        string
	client      *Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAIBackend creates a backend around client
func NewOpenAIBackend(name string, client *Client, model string, temperature float64, maxTokens int) *OpenAIBackend {
	return &OpenAIBackend{
		name:        name,
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (b *OpenAIBackend) Name() string {
	return b.name
}

// Stream sends the conversation and returns the streamed response
func (b *OpenAIBackend) Stream(ctx context.Context, req Request) (Stream, error) {
	return b.client.StreamChatCompletion(ctx, b.request(req))
}

func (b *OpenAIBackend) request(req Request) ChatCompletionRequest {
	return ChatCompletionRequest{
		Model:       b.model,
		Messages:    toWireMessages(req.System, req.Messages),
		Tools:       toWireTools(req.Tools),
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	}
}

func toWireMessages(system string, msgs []conversation.Message) []Message {
	out := make([]Message, 0, len(msgs)+1)
	if system != "" {
		out = append(out, Message{Role: "system", Content: system})
	}
	for _, m := range pairToolCalls(msgs) {
		switch m.Role {
		case conversation.RoleAssistant:
			out = append(out, Message{
				Role:    "assistant",
				Content: m.Content,
				ToolCalls: lo.Map(m.ToolCalls, func(tc conversation.ToolCall, _ int) ToolCall {
					return ToolCall{
						ID:       tc.ID,
						Type:     "function",
						Function: FunctionCall{Name: tc.Name, Arguments: arguments(tc.Arguments)},
					}
				}),
			})
		case conversation.RoleTool:
			out = append(out, Message{Role: "tool", Content: m.Content, ToolCallID: m.Result.CallID})
		default:
			out = append(out, Message{Role: string(m.Role), Content: m.Content})
		}
	}
	return out
}

func toWireTools(descs []catalog.Descriptor) []Tool {
	return lo.Map(descs, func(d catalog.Descriptor, _ int) Tool {
		return Tool{
			Type: "function",
			Function: FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  parametersOf(d.Schema),
			},
		}
	})
}
