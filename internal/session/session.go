// Package session drives a chat session: it reads user input, sends the
// conversation to the model backend, routes tool calls to the tool host and
// folds everything back into history one turn at a time.
//
// A turn commits atomically. The user message is appended as soon as it is
// dispatched; everything the turn produces after that is staged and only
// appended once the turn succeeds, so a failed turn grows history by exactly
// one message.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/conversation"
	"github.com/recrsn/mcpchat/internal/llm"
	"github.com/recrsn/mcpchat/internal/logging"
	"github.com/recrsn/mcpchat/internal/permission"
)

// ExitCommand ends the session, compared case-insensitively
const ExitCommand = "exit"

const defaultMaxToolRounds = 10

// Invoker runs a tool on the tool host
type Invoker interface {
	InvokeTool(ctx context.Context, name string, args json.RawMessage) (string, error)
}

// Approver decides whether a tool call may run
type Approver interface {
	RequestPermission(ctx context.Context, request permission.Request) permission.Response
}

// UI is the user-facing side of the session
type UI interface {
	// ReadLine returns the next line of input, or io.EOF when input ends
	ReadLine(ctx context.Context) (string, error)
	StartResponse()
	PrintFragment(text string)
	PrintToolCall(call conversation.ToolCall)
	PrintToolResult(call conversation.ToolCall, output string, err error)
	FinishResponse(result TurnResult)
	PrintError(err error)
	PrintExit()
}

// TurnResult summarizes a committed turn
type TurnResult struct {
	Turn int
	// Reply is the text of the last assistant message of the turn
	Reply string
	// Empty is set when the turn committed no assistant message
	Empty     bool
	ToolCalls int
	// Committed counts the messages appended, the user message included
	Committed int
}

// Options tune a session
type Options struct {
	SystemPrompt  string
	MaxToolRounds int
	Approver      Approver
	Logger        *slog.Logger
}

// Session owns the conversation history and everything needed to extend it
type Session struct {
	backend  llm.Backend
	catalog  *catalog.Catalog
	tools    []catalog.Descriptor
	invoker  Invoker
	ui       UI
	approver Approver
	logger   *slog.Logger

	systemPrompt  string
	maxToolRounds int

	history *conversation.History
	state   State
	turns   int
}

// New creates a session. The catalog must already be fetched.
func New(backend llm.Backend, cat *catalog.Catalog, invoker Invoker, ui UI, opts Options) *Session {
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = defaultMaxToolRounds
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		backend:       backend,
		catalog:       cat,
		tools:         cat.Descriptors(),
		invoker:       invoker,
		ui:            ui,
		approver:      opts.Approver,
		logger:        opts.Logger,
		systemPrompt:  opts.SystemPrompt,
		maxToolRounds: opts.MaxToolRounds,
		history:       conversation.NewHistory(),
		state:         AwaitingInput,
	}
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// History returns a snapshot of the committed conversation
func (s *Session) History() []conversation.Message {
	return s.history.Snapshot()
}

// Run reads and processes input until the user exits, input ends or ctx is
// cancelled. Failed turns are reported and do not end the session.
func (s *Session) Run(ctx context.Context) error {
	defer s.close()

	for {
		s.state = AwaitingInput
		line, err := s.ui.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			s.ui.PrintExit()
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading input: %w", err)
		}

		if IsExit(line) {
			s.ui.PrintExit()
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		// failures are already reported by Submit
		_, _ = s.Submit(ctx, line)

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// IsExit reports whether line asks to end the session
func IsExit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), ExitCommand)
}

// Submit processes one line of user input as a turn. Blank input is a no-op.
// A failed turn is returned as a *TurnError and leaves history with only the
// user message added.
func (s *Session) Submit(ctx context.Context, line string) (TurnResult, error) {
	if s.state == Closed {
		return TurnResult{}, ErrClosed
	}
	if strings.TrimSpace(line) == "" {
		return TurnResult{}, nil
	}

	s.turns++
	turn := s.turns
	ctx = logging.WithTurnID(ctx, turn)

	s.state = Dispatching
	s.history.Append(conversation.UserMessage(line))
	s.ui.StartResponse()

	staged, calls, err := s.runTurn(ctx)
	if err != nil {
		s.state = AwaitingInput
		turnErr := &TurnError{Turn: turn, Err: err}
		s.logger.WarnContext(ctx, "turn failed", "err", err)
		s.ui.PrintError(turnErr)
		return TurnResult{Turn: turn}, turnErr
	}

	s.state = Committing
	s.history.Append(staged...)

	result := TurnResult{Turn: turn, ToolCalls: calls, Committed: len(staged) + 1}
	if reply, ok := conversation.LastAssistant(staged); ok {
		result.Reply = reply.Content
	} else {
		result.Empty = true
	}
	s.logger.DebugContext(ctx, "turn committed", "messages", result.Committed, "tool_calls", calls)
	s.ui.FinishResponse(result)

	s.state = AwaitingInput
	return result, nil
}

// runTurn calls the backend until it stops requesting tools and returns the
// messages to commit
func (s *Session) runTurn(ctx context.Context) ([]conversation.Message, int, error) {
	var staged []conversation.Message
	calls := 0

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, calls, err
		}

		s.state = Dispatching
		req := llm.Request{
			System:   s.systemPrompt,
			Messages: append(s.history.Snapshot(), staged...),
			Tools:    s.tools,
		}
		s.logger.DebugContext(ctx, "dispatching", "backend", s.backend.Name(), "round", round, "messages", len(req.Messages))

		stream, err := s.backend.Stream(ctx, req)
		if err != nil {
			return nil, calls, err
		}

		s.state = Accumulating
		text, toolCalls, err := s.accumulate(ctx, stream)
		if err != nil {
			return nil, calls, err
		}

		if len(toolCalls) == 0 {
			if text != "" {
				staged = append(staged, conversation.AssistantMessage(text))
			}
			return staged, calls, nil
		}
		if round >= s.maxToolRounds {
			return nil, calls, fmt.Errorf("%w: %d rounds", ErrToolRoundLimit, s.maxToolRounds)
		}

		if text != "" {
			staged = append(staged, conversation.AssistantMessage(text))
		}
		for _, call := range toolCalls {
			output, err := s.invoke(ctx, call)
			if err != nil {
				return nil, calls, err
			}
			calls++
			staged = append(staged, conversation.ToolMessage(call, output))
		}
	}
}

// accumulate pulls every fragment of stream, echoing text as it arrives
func (s *Session) accumulate(ctx context.Context, stream llm.Stream) (string, []conversation.ToolCall, error) {
	defer stream.Close()

	var text strings.Builder
	var calls []conversation.ToolCall
	for {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return text.String(), calls, nil
		}
		if err != nil {
			return "", nil, err
		}
		if frag.Text != "" {
			text.WriteString(frag.Text)
			s.ui.PrintFragment(frag.Text)
		}
		calls = append(calls, frag.ToolCalls...)
	}
}

// invoke resolves, checks and runs a single tool call
func (s *Session) invoke(ctx context.Context, call conversation.ToolCall) (string, error) {
	if _, err := s.catalog.Lookup(call.Name); err != nil {
		return "", err
	}
	if err := s.catalog.Validate(call.Name, call.Arguments); err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolExecution, err)
	}

	if s.approver != nil {
		resp := s.approver.RequestPermission(ctx, permission.Request{
			ToolName:  call.Name,
			Arguments: call.Arguments,
			Title:     call.Name,
			Context:   string(call.Arguments),
		})
		if !resp.Granted {
			if resp.AlternateAction != "" {
				return "", fmt.Errorf("%w: %s: %s", ErrToolDenied, call.Name, resp.AlternateAction)
			}
			return "", fmt.Errorf("%w: %s", ErrToolDenied, call.Name)
		}
	}

	s.ui.PrintToolCall(call)
	s.logger.DebugContext(ctx, "invoking tool", "tool", call.Name, "call_id", call.ID)
	output, err := s.invoker.InvokeTool(ctx, call.Name, call.Arguments)
	s.ui.PrintToolResult(call, output, err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", ErrToolExecution, err)
	}
	return output, nil
}

func (s *Session) close() {
	s.state = Closed
}
