package llm

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEReader(t *testing.T) {
	body := ": keep-alive\n\n" +
		"event: message_start\ndata: {\"a\":1}\n\n" +
		"data: line one\ndata: line two\n\n" +
		"data: [DONE]"
	r := newSSEReader(context.Background(), strings.NewReader(body))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, sseEvent{Name: "message_start", Data: `{"a":1}`}, ev)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", ev.Data)
	assert.Empty(t, ev.Name)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "[DONE]", ev.Data)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newSSEReader(ctx, strings.NewReader("data: x\n\n"))
	_, err := r.Next()
	assert.ErrorIs(t, err, context.Canceled)
}
