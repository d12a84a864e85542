package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/conversation"
	"github.com/recrsn/mcpchat/internal/llm"
	"github.com/recrsn/mcpchat/internal/permission"
	"github.com/recrsn/mcpchat/internal/session"
	"github.com/recrsn/mcpchat/internal/util"
)

// PlainUI is a line-oriented UI without colors or cursor control, for pipes
// and dumb terminals
type PlainUI struct {
	in       *bufio.Reader
	out      io.Writer
	midReply bool

	// lines is fed by a reader goroutine so a blocked read can be abandoned
	// when the context ends
	once  sync.Once
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewPlainUI reads input from in and writes everything to out
func NewPlainUI(in io.Reader, out io.Writer) *PlainUI {
	return &PlainUI{in: bufio.NewReader(in), out: out, lines: make(chan lineResult)}
}

func (u *PlainUI) ShowHeader(conn llm.Connection, serverName string, cat *catalog.Catalog) {
	for _, line := range ConnectionLines(conn) {
		fmt.Fprintln(u.out, line)
	}
	if serverName != "" {
		fmt.Fprintf(u.out, "Tool host: %s\n", serverName)
	}
	fmt.Fprintln(u.out, "Available tools:")
	for _, d := range cat.Descriptors() {
		if d.Description != "" {
			fmt.Fprintf(u.out, "  - %s: %s\n", d.Name, d.Description)
		} else {
			fmt.Fprintf(u.out, "  - %s\n", d.Name)
		}
	}
}

func (u *PlainUI) ReadLine(ctx context.Context) (string, error) {
	fmt.Fprint(u.out, inputPrompt)
	return u.readLine(ctx)
}

func (u *PlainUI) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	u.once.Do(func() { go u.scan() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-u.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}

func (u *PlainUI) scan() {
	defer close(u.lines)
	for {
		line, err := u.in.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			u.lines <- lineResult{err: err}
			return
		}
		u.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
	}
}

func (u *PlainUI) StartResponse() {
	u.midReply = false
}

func (u *PlainUI) PrintFragment(text string) {
	fmt.Fprint(u.out, text)
	u.midReply = true
}

func (u *PlainUI) PrintToolCall(call conversation.ToolCall) {
	u.endLine()
	fmt.Fprintf(u.out, "[tool] %s\n", call.Name)
	for _, line := range strings.Split(util.FormatArguments(call.Arguments), "\n") {
		fmt.Fprintf(u.out, "  %s\n", line)
	}
}

func (u *PlainUI) PrintToolResult(call conversation.ToolCall, output string, err error) {
	if err != nil {
		fmt.Fprintf(u.out, "[tool] %s failed: %v\n", call.Name, err)
		return
	}
	fmt.Fprintf(u.out, "[tool] %s returned:\n%s\n", call.Name, util.Truncate(output, maxResultLen))
}

func (u *PlainUI) FinishResponse(result session.TurnResult) {
	u.endLine()
	if result.Empty {
		fmt.Fprintln(u.out, emptyMessage)
	}
}

func (u *PlainUI) PrintError(err error) {
	u.endLine()
	fmt.Fprintf(u.out, "Error: %v\n", err)
}

func (u *PlainUI) PrintExit() {
	u.endLine()
	fmt.Fprintln(u.out, exitMessage)
}

// RequestPermission asks on the same input stream; anything but y or yes
// denies, and a denial is followed by a line of alternate instructions
func (u *PlainUI) RequestPermission(ctx context.Context, request permission.Request) permission.Response {
	u.endLine()
	fmt.Fprintln(u.out, permissionText(request, util.FormatArguments(request.Arguments)))
	fmt.Fprint(u.out, "Allow? [y/N] ")
	answer, err := u.readLine(ctx)
	if err != nil {
		return permission.Response{Granted: false}
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return permission.Response{Granted: true}
	}

	fmt.Fprint(u.out, "What should I do instead? ")
	alternate, _ := u.readLine(ctx)
	return permission.Response{Granted: false, AlternateAction: strings.TrimSpace(alternate)}
}

func (u *PlainUI) Close() error { return nil }

func (u *PlainUI) endLine() {
	if u.midReply {
		fmt.Fprintln(u.out)
		u.midReply = false
	}
}
