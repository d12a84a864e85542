package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	resp *llms.ContentResponse
	err  error

	msgs []llms.MessageContent
	opts llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.msgs = msgs
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("not supported")
}

func TestLangchainBackend_ToolCall(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           "call_1",
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: "GetStudentById", Arguments: `{"id":3}`},
		}},
	}}}}
	backend := NewLangchainBackend("ollama", model, 0.5, 256, nil)

	stream, err := backend.Stream(context.Background(), Request{
		System:   "You are a helpful assistant.",
		Messages: []conversation.Message{conversation.UserMessage("Who has id 3?")},
		Tools:    []catalog.Descriptor{{Name: "GetStudentById", Schema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"integer"}}}`)}},
	})
	require.NoError(t, err)

	frags, err := collect(stream)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	require.Len(t, frags[0].ToolCalls, 1)
	assert.Equal(t, "GetStudentById", frags[0].ToolCalls[0].Name)
	assert.JSONEq(t, `{"id":3}`, string(frags[0].ToolCalls[0].Arguments))

	require.Len(t, model.msgs, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.msgs[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.msgs[1].Role)
	require.Len(t, model.opts.Tools, 1)
	assert.Equal(t, "GetStudentById", model.opts.Tools[0].Function.Name)
	assert.Equal(t, 0.5, model.opts.Temperature)
	assert.Equal(t, 256, model.opts.MaxTokens)
}

func TestLangchainBackend_History(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Student 3 is Ann Lee."}}}}
	backend := NewLangchainBackend("ollama", model, 0, 0, nil)

	call := conversation.ToolCall{ID: "call_1", Name: "GetStudentById", Arguments: json.RawMessage(`{"id":3}`)}
	stream, err := backend.Stream(context.Background(), Request{Messages: []conversation.Message{
		conversation.UserMessage("Who has id 3?"),
		conversation.ToolMessage(call, `{"id":3,"firstName":"Ann"}`),
	}})
	require.NoError(t, err)

	frags, err := collect(stream)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	assert.Equal(t, "Student 3 is Ann Lee.", frags[0].Text)

	require.Len(t, model.msgs, 3)
	assert.Equal(t, llms.ChatMessageTypeAI, model.msgs[1].Role)
	require.Len(t, model.msgs[1].Parts, 1)
	tc, ok := model.msgs[1].Parts[0].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "call_1", tc.ID)

	assert.Equal(t, llms.ChatMessageTypeTool, model.msgs[2].Role)
	resp, ok := model.msgs[2].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "call_1", resp.ToolCallID)
	assert.Equal(t, `{"id":3,"firstName":"Ann"}`, resp.Content)
	assert.Empty(t, model.opts.Tools)
}

func TestLangchainBackend_Errors(t *testing.T) {
	_, err := NewLangchainBackend("ollama", &fakeModel{err: errors.New("connection refused")}, 0, 0, nil).
		Stream(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	_, err = NewLangchainBackend("ollama", &fakeModel{resp: &llms.ContentResponse{}}, 0, 0, nil).
		Stream(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = NewLangchainBackend("ollama", &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{ID: "x"}},
	}}}}, 0, 0, nil).Stream(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
