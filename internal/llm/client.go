package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
)

// Client provides a simple client for OpenAI compatible chat completion APIs
type Client struct {
	url        string
	auth       Authenticator
	httpClient *http.Client
	logger     APILogger
}

// NewClient creates a client posting to the chat completions url. The
// timeout covers the wait for response headers only, streamed bodies are
// bounded by the request context.
func NewClient(url string, auth Authenticator, logger APILogger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = defaultTimeout
	return &Client{
		url:        url,
		auth:       auth,
		httpClient: &http.Client{Transport: transport},
		logger:     logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Message represents a message in a conversation
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// FunctionCall represents a function call by the model
type FunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"`
}

// FunctionDefinition defines a function that can be called by the model
type FunctionDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// Tool represents a tool available to the model
type Tool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// ChatCompletionRequest is the request structure for chat completions
type ChatCompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// ToolCall represents a tool call by the model
type ToolCall struct {
	Index    *int         `json:"index,omitempty"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// ChatCompletionChoice represents a completion choice
type ChatCompletionChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	Delta        Message `json:"delta"`
	FinishReason string  `json:"finish_reason"`
}

// ChatCompletionResponse is the response structure for chat completions and
// for each chunk of a streamed completion
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

// APIError is a non-success HTTP response from the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// CreateChatCompletion creates a chat completion with context for cancellation
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	req.Stream = false
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respData, err := c.decodeResponse(req, resp.Body)
	if err != nil {
		return nil, err
	}
	return respData, nil
}

// StreamChatCompletion starts a streamed chat completion. Servers that ignore
// the stream flag and answer with a single JSON document are handled too.
func (c *Client) StreamChatCompletion(ctx context.Context, req ChatCompletionRequest) (Stream, error) {
	req.Stream = true
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "text/event-stream" {
		defer resp.Body.Close()
		respData, err := c.decodeResponse(req, resp.Body)
		if err != nil {
			return nil, err
		}
		frag, err := fragmentOf(respData)
		if err != nil {
			return nil, err
		}
		return Complete(frag), nil
	}

	return newChatStream(ctx, resp.Body, func(err error) {
		if c.logger != nil {
			c.logger.LogInteraction(req, nil, err)
		}
	}), nil
}

func (c *Client) do(ctx context.Context, req ChatCompletionRequest) (*http.Response, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, unavailable(fmt.Errorf("creating request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if c.auth != nil {
		if err := c.auth.Authenticate(ctx, httpReq); err != nil {
			c.log(req, nil, err)
			return nil, unavailable(err)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Check if the error was caused by context cancellation
		if ctx.Err() != nil {
			err = fmt.Errorf("request cancelled: %w", ctx.Err())
			c.log(req, nil, err)
			return nil, err
		}
		err = fmt.Errorf("request error: %w", err)
		c.log(req, nil, err)
		return nil, unavailable(err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp ChatCompletionResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
			apiErr.Message = errResp.Error.Message
		}
		c.log(req, nil, fmt.Errorf("%w: %s", apiErr, string(body)))
		return nil, unavailable(apiErr)
	}
	return resp, nil
}

func (c *Client) decodeResponse(req ChatCompletionRequest, body io.Reader) (*ChatCompletionResponse, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		err = fmt.Errorf("reading response: %w", err)
		c.log(req, nil, err)
		return nil, unavailable(err)
	}

	var respData ChatCompletionResponse
	if err := json.Unmarshal(data, &respData); err != nil {
		err = malformed("unmarshaling response: %v", err)
		c.log(req, nil, err)
		return nil, err
	}

	c.log(req, respData, nil)
	return &respData, nil
}

func (c *Client) log(req, resp any, err error) {
	if c.logger != nil {
		c.logger.LogInteraction(req, resp, err)
	}
}

// fragmentOf converts a complete response into a single fragment
func fragmentOf(resp *ChatCompletionResponse) (Fragment, error) {
	if resp.Error != nil {
		return Fragment{}, unavailable(fmt.Errorf("API error: %s", resp.Error.Message))
	}
	if len(resp.Choices) == 0 {
		return Fragment{}, malformed("response has no choices")
	}
	msg := resp.Choices[0].Message
	frag := Fragment{Text: msg.Content}
	for i, tc := range msg.ToolCalls {
		call, err := toolCallOf(tc, i)
		if err != nil {
			return Fragment{}, err
		}
		frag.ToolCalls = append(frag.ToolCalls, call)
	}
	return frag, nil
}
