package llm

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// sseEvent is one server-sent event
type sseEvent struct {
	Name string
	Data string
}

// sseReader pulls server-sent events off a response body one at a time
type sseReader struct {
	ctx     context.Context
	scanner *bufio.Scanner
}

func newSSEReader(ctx context.Context, r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseReader{ctx: ctx, scanner: scanner}
}

// Next returns the next event with a non-empty data payload, or io.EOF once
// the body is exhausted.
func (r *sseReader) Next() (sseEvent, error) {
	var eventName string
	var dataBuf strings.Builder
	for r.scanner.Scan() {
		if err := r.ctx.Err(); err != nil {
			return sseEvent{}, err
		}
		line := r.scanner.Text()
		if line == "" {
			if dataBuf.Len() > 0 {
				return sseEvent{Name: eventName, Data: dataBuf.String()}, nil
			}
			eventName = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "event:") {
			eventName = strings.TrimSpace(line[6:])
			continue
		}
		if strings.HasPrefix(line, "data:") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimSpace(line[5:]))
		}
	}
	if err := r.scanner.Err(); err != nil {
		return sseEvent{}, err
	}
	if err := r.ctx.Err(); err != nil {
		return sseEvent{}, err
	}
	// a final event without the trailing blank line still counts
	if dataBuf.Len() > 0 {
		return sseEvent{Name: eventName, Data: dataBuf.String()}, nil
	}
	return sseEvent{}, io.EOF
}
