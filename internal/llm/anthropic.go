package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/conversation"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicBackend streams completions from the Anthropic Messages API
type AnthropicBackend struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
	logger      APILogger
}

// NewAnthropicBackend creates a backend for model. Extra client options are
// applied after the API key.
func NewAnthropicBackend(apiKey, model string, maxTokens int, temperature float64, logger APILogger, opts ...option.RequestOption) *AnthropicBackend {
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	clientOpts := []option.RequestOption{}
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	clientOpts = append(clientOpts, opts...)
	return &AnthropicBackend{
		client:      anthropic.NewClient(clientOpts...),
		model:       anthropic.Model(model),
		maxTokens:   int64(maxTokens),
		temperature: temperature,
		logger:      logger,
	}
}

func (b *AnthropicBackend) Name() string {
	return "anthropic"
}

// Stream sends the conversation and returns the streamed response
func (b *AnthropicBackend) Stream(ctx context.Context, req Request) (Stream, error) {
	params := b.params(req)
	stream := b.client.Messages.NewStreaming(ctx, params)
	return &anthropicStream{
		stream: stream,
		calls:  make(map[int64]*pendingCall),
		onError: func(err error) {
			if b.logger != nil {
				b.logger.LogInteraction(params, nil, err)
			}
		},
	}, nil
}

func (b *AnthropicBackend) params(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		Messages:  toAnthropicMessages(req.Messages),
		Tools:     toAnthropicTools(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if b.temperature > 0 {
		params.Temperature = anthropic.Float(b.temperature)
	}
	return params
}

type anthropicStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	calls   map[int64]*pendingCall
	onError func(error)
	flushed bool
}

func (s *anthropicStream) Recv() (Fragment, error) {
	for s.stream.Next() {
		switch ev := s.stream.Current().AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if ev.ContentBlock.Type == "tool_use" {
				s.calls[ev.Index] = &pendingCall{id: ev.ContentBlock.ID, name: ev.ContentBlock.Name}
			}
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if delta.Text != "" {
					return Fragment{Text: delta.Text}, nil
				}
			case anthropic.InputJSONDelta:
				if p, ok := s.calls[ev.Index]; ok {
					p.args.WriteString(delta.PartialJSON)
				}
			}
		}
	}

	if err := s.stream.Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Fragment{}, err
		}
		err = unavailable(fmt.Errorf("anthropic stream: %w", err))
		if s.onError != nil {
			s.onError(err)
		}
		return Fragment{}, err
	}

	if s.flushed || len(s.calls) == 0 {
		return Fragment{}, io.EOF
	}
	s.flushed = true

	indexes := make([]int64, 0, len(s.calls))
	for idx := range s.calls {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	frag := Fragment{}
	for _, idx := range indexes {
		p := s.calls[idx]
		call, err := toolCallOf(ToolCall{ID: p.id, Function: FunctionCall{Name: p.name, Arguments: p.args.String()}}, int(idx))
		if err != nil {
			return Fragment{}, err
		}
		frag.ToolCalls = append(frag.ToolCalls, call)
	}
	return frag, nil
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}

// toAnthropicMessages converts history into alternating user and assistant
// turns. Tool results travel as tool_result blocks inside a user message.
func toAnthropicMessages(msgs []conversation.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	var results []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, m := range pairToolCalls(msgs) {
		switch m.Role {
		case conversation.RoleUser:
			flushResults()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case conversation.RoleAssistant:
			flushResults()
			var blocks []anthropic.ContentBlockParamUnion
			if strings.TrimSpace(m.Content) != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: json.RawMessage(arguments(tc.Arguments)),
					},
				})
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		case conversation.RoleTool:
			results = append(results, anthropic.NewToolResultBlock(m.Result.CallID, m.Content, false))
		}
	}
	flushResults()
	return out
}

func toAnthropicTools(descs []catalog.Descriptor) []anthropic.ToolUnionParam {
	var tools []anthropic.ToolUnionParam
	for _, d := range descs {
		tool := &anthropic.ToolParam{
			Name:        d.Name,
			InputSchema: toAnthropicSchema(parametersOf(d.Schema)),
		}
		if d.Description != "" {
			tool.Description = anthropic.String(d.Description)
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: tool})
	}
	return tools
}

// toAnthropicSchema keeps required fields and any other schema keywords
func toAnthropicSchema(params map[string]any) anthropic.ToolInputSchemaParam {
	schema := anthropic.ToolInputSchemaParam{Properties: params["properties"]}
	if required, ok := params["required"].([]any); ok {
		for _, r := range required {
			if name, ok := r.(string); ok {
				schema.Required = append(schema.Required, name)
			}
		}
	}
	for k, v := range params {
		switch k {
		case "type", "properties", "required", "$schema":
			continue
		}
		if schema.ExtraFields == nil {
			schema.ExtraFields = map[string]any{}
		}
		schema.ExtraFields[k] = v
	}
	return schema
}
