package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/conversation"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	defaultOllamaEndpoint = "http://localhost:11434/v1"
	defaultOllamaModel    = "llama3.2:3b"
)

// LangchainBackend answers through a langchaingo model. The response arrives
// complete and is handed out as a single fragment.
type LangchainBackend struct {
	name        string
	model       llms.Model
	temperature float64
	maxTokens   int
	logger      APILogger
}

// NewOllamaBackend talks to a local Ollama server through its OpenAI
// compatible endpoint
func NewOllamaBackend(endpoint, model string, temperature float64, maxTokens int, logger APILogger) (*LangchainBackend, error) {
	if endpoint == "" {
		endpoint = defaultOllamaEndpoint
	}
	if model == "" {
		model = defaultOllamaModel
	}
	llm, err := openai.New(
		openai.WithBaseURL(endpoint),
		openai.WithModel(model),
		// Ollama ignores the token but the client insists on one
		openai.WithToken("ollama"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	return NewLangchainBackend("ollama", llm, temperature, maxTokens, logger), nil
}

// NewLangchainBackend wraps an arbitrary langchaingo model
func NewLangchainBackend(name string, model llms.Model, temperature float64, maxTokens int, logger APILogger) *LangchainBackend {
	return &LangchainBackend{name: name, model: model, temperature: temperature, maxTokens: maxTokens, logger: logger}
}

func (b *LangchainBackend) Name() string {
	return b.name
}

// Stream invokes the model and returns its complete answer
func (b *LangchainBackend) Stream(ctx context.Context, req Request) (Stream, error) {
	msgs := toLangchainMessages(req.System, req.Messages)

	var opts []llms.CallOption
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(toLangchainTools(req.Tools)))
	}
	if b.temperature > 0 {
		opts = append(opts, llms.WithTemperature(b.temperature))
	}
	if b.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(b.maxTokens))
	}

	resp, err := b.model.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		b.log(msgs, nil, err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, unavailable(err)
	}
	b.log(msgs, resp, nil)

	if resp == nil || len(resp.Choices) == 0 {
		return nil, malformed("response has no choices")
	}
	choice := resp.Choices[0]

	frag := Fragment{Text: choice.Content}
	for i, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			return nil, malformed("tool call %d has no function", i)
		}
		call, err := toolCallOf(ToolCall{ID: tc.ID, Function: FunctionCall{Name: tc.FunctionCall.Name, Arguments: tc.FunctionCall.Arguments}}, i)
		if err != nil {
			return nil, err
		}
		frag.ToolCalls = append(frag.ToolCalls, call)
	}
	return Complete(frag), nil
}

func (b *LangchainBackend) log(req, resp any, err error) {
	if b.logger != nil {
		b.logger.LogInteraction(req, resp, err)
	}
}

func toLangchainMessages(system string, msgs []conversation.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs)+1)
	if system != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range pairToolCalls(msgs) {
		switch m.Role {
		case conversation.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case conversation.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case conversation.RoleAssistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if m.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextContent{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: arguments(tc.Arguments),
					},
				})
			}
			out = append(out, mc)
		case conversation.RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: m.Result.CallID,
					Name:       m.Result.Name,
					Content:    m.Content,
				}},
			})
		}
	}
	return out
}

func toLangchainTools(descs []catalog.Descriptor) []llms.Tool {
	tools := make([]llms.Tool, 0, len(descs))
	for _, d := range descs {
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  parametersOf(d.Schema),
			},
		})
	}
	return tools
}
