package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/conversation"
)

// Error types
var (
	// ErrBackendUnavailable means the model backend could not be reached or
	// rejected the request.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrMalformedResponse means the backend answered with something that
	// could not be decoded into fragments.
	ErrMalformedResponse = errors.New("malformed response")
)

// Request is everything a backend needs for one invocation: the full
// conversation so far and the tool catalog.
type Request struct {
	System   string
	Messages []conversation.Message
	Tools    []catalog.Descriptor
}

// Fragment is one incremental piece of a model response. Tool calls are
// delivered complete, never split across fragments.
type Fragment struct {
	Text      string
	ToolCalls []conversation.ToolCall
}

// Stream is a finite, non-restartable producer of fragments. Recv returns
// io.EOF after the last fragment.
type Stream interface {
	Recv() (Fragment, error)
	Close() error
}

// Backend is a language model that can be invoked with a conversation
type Backend interface {
	Name() string
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Connection describes how a backend was set up, for the startup banner
type Connection struct {
	Provider string
	Auth     string
	Model    string
	// Streaming is set when replies arrive as incremental fragments rather
	// than one complete fragment
	Streaming bool
}

// Complete wraps an already complete response as a stream
func Complete(frags ...Fragment) Stream {
	return &sliceStream{frags: frags}
}

type sliceStream struct {
	frags  []Fragment
	closed bool
}

func (s *sliceStream) Recv() (Fragment, error) {
	if s.closed || len(s.frags) == 0 {
		return Fragment{}, io.EOF
	}
	f := s.frags[0]
	s.frags = s.frags[1:]
	return f, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	s.frags = nil
	return nil
}

// unavailable classifies err as ErrBackendUnavailable unless it already
// carries a classification.
func unavailable(err error) error {
	if err == nil || errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrMalformedResponse) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
