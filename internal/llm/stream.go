package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/recrsn/mcpchat/internal/conversation"
)

// chatStream decodes a streamed chat completion. Text deltas are handed out
// as they arrive, tool call deltas are assembled and handed out once the
// model finishes.
type chatStream struct {
	body    io.ReadCloser
	events  *sseReader
	onError func(error)

	calls    map[int]*pendingCall
	finished bool
	done     bool
}

type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

func newChatStream(ctx context.Context, body io.ReadCloser, onError func(error)) *chatStream {
	return &chatStream{
		body:    body,
		events:  newSSEReader(ctx, body),
		onError: onError,
		calls:   make(map[int]*pendingCall),
	}
}

func (s *chatStream) Recv() (Fragment, error) {
	for {
		if s.done {
			return Fragment{}, io.EOF
		}

		ev, err := s.events.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			if !s.finished {
				return Fragment{}, s.fail(malformed("stream ended before completion"))
			}
			return s.flush()
		}
		if err != nil {
			s.done = true
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Fragment{}, err
			}
			return Fragment{}, s.fail(unavailable(fmt.Errorf("reading stream: %w", err)))
		}

		if ev.Data == "[DONE]" {
			s.done = true
			s.finished = true
			return s.flush()
		}

		var chunk ChatCompletionResponse
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			s.done = true
			return Fragment{}, s.fail(malformed("decoding chunk: %v", err))
		}
		if chunk.Error != nil {
			s.done = true
			return Fragment{}, s.fail(unavailable(fmt.Errorf("API error: %s", chunk.Error.Message)))
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		for pos, tc := range choice.Delta.ToolCalls {
			idx := pos
			if tc.Index != nil {
				idx = *tc.Index
			}
			p, ok := s.calls[idx]
			if !ok {
				p = &pendingCall{}
				s.calls[idx] = p
			}
			if tc.ID != "" {
				p.id = tc.ID
			}
			if p.name == "" {
				p.name = tc.Function.Name
			}
			p.args.WriteString(tc.Function.Arguments)
		}
		if choice.FinishReason != "" {
			s.finished = true
		}
		if choice.Delta.Content != "" {
			return Fragment{Text: choice.Delta.Content}, nil
		}
	}
}

// flush hands out the assembled tool calls, if any
func (s *chatStream) flush() (Fragment, error) {
	if len(s.calls) == 0 {
		return Fragment{}, io.EOF
	}
	indexes := make([]int, 0, len(s.calls))
	for idx := range s.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	calls := make([]conversation.ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		p := s.calls[idx]
		call, err := toolCallOf(ToolCall{ID: p.id, Function: FunctionCall{Name: p.name, Arguments: p.args.String()}}, idx)
		if err != nil {
			return Fragment{}, s.fail(err)
		}
		calls = append(calls, call)
	}
	s.calls = nil
	return Fragment{ToolCalls: calls}, nil
}

func (s *chatStream) fail(err error) error {
	if s.onError != nil {
		s.onError(err)
	}
	return err
}

func (s *chatStream) Close() error {
	s.done = true
	return s.body.Close()
}

// toolCallOf converts a wire tool call, validating its name and arguments
func toolCallOf(tc ToolCall, pos int) (conversation.ToolCall, error) {
	if tc.Function.Name == "" {
		return conversation.ToolCall{}, malformed("tool call %d has no name", pos)
	}
	args, err := toolCallArguments(tc.Function.Name, tc.Function.Arguments)
	if err != nil {
		return conversation.ToolCall{}, err
	}
	id := tc.ID
	if id == "" {
		id = fmt.Sprintf("call_%d", pos)
	}
	return conversation.ToolCall{ID: id, Name: tc.Function.Name, Arguments: args}, nil
}
