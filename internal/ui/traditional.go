package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	md "github.com/MichaelMure/go-term-markdown"
	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/config"
	"github.com/recrsn/mcpchat/internal/conversation"
	"github.com/recrsn/mcpchat/internal/llm"
	"github.com/recrsn/mcpchat/internal/permission"
	"github.com/recrsn/mcpchat/internal/session"
	"github.com/recrsn/mcpchat/internal/util"
)

// TraditionalUI handles the terminal user interface using pterm and readline
type TraditionalUI struct {
	config   config.UIConfig
	readline *readline.Instance
	spinner  *pterm.SpinnerPrinter
	out      io.Writer

	// wholeReplies is set for backends that deliver a reply as one complete
	// fragment. Only those replies are held in pending and rendered as
	// markdown; streamed fragments are echoed as they arrive.
	wholeReplies bool
	pending      string
	streaming    bool
}

// NewTraditionalUI creates a new TraditionalUI instance
func NewTraditionalUI(cfg config.UIConfig) (*TraditionalUI, error) {
	if !cfg.ColorEnabled {
		pterm.DisableColor()
	}

	historyFile, err := historyPath(cfg)
	if err != nil {
		return nil, err
	}

	instance, err := readline.NewEx(&readline.Config{
		Prompt:          inputPrompt,
		HistoryFile:     historyFile,
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %v", err)
	}

	return &TraditionalUI{
		config:   cfg,
		readline: instance,
		out:      os.Stdout,
	}, nil
}

// ShowHeader displays the application header, the connection and the tools
func (u *TraditionalUI) ShowHeader(conn llm.Connection, serverName string, cat *catalog.Catalog) {
	u.setConnection(conn)

	header := pterm.DefaultHeader.WithBackgroundStyle(pterm.NewStyle(pterm.BgBlue)).WithMargin(10)
	header.Println("MCP Chat")

	for _, line := range ConnectionLines(conn) {
		pterm.Success.Println(line)
	}
	if serverName != "" {
		pterm.Info.Printfln("Tool host: %s", serverName)
	}

	table := pterm.TableData{{"Tool", "Description"}}
	for _, d := range cat.Descriptors() {
		table = append(table, []string{d.Name, d.Description})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
		pterm.Error.Println("Error rendering tool table:", err)
	}
	pterm.Info.Printfln("Type %q or press Ctrl+D to leave.", session.ExitCommand)
}

func (u *TraditionalUI) setConnection(conn llm.Connection) {
	u.wholeReplies = !conn.Streaming
}

// ReadLine reads a line from the terminal. Ctrl+C on an empty line ends input.
func (u *TraditionalUI) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line, err := u.readline.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		if line == "" {
			return "", io.EOF
		}
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return line, nil
}

// StartResponse shows a spinner until the first fragment arrives
func (u *TraditionalUI) StartResponse() {
	u.pending = ""
	u.streaming = false
	if u.config.ShowSpinner {
		u.spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Thinking")
	}
}

// PrintFragment echoes a piece of the reply
func (u *TraditionalUI) PrintFragment(text string) {
	u.stopSpinner()

	if u.config.RenderMarkdown && u.wholeReplies {
		u.pending += text
		return
	}
	fmt.Fprint(u.out, text)
	u.streaming = true
}

// PrintToolCall shows the tool about to run and its arguments
func (u *TraditionalUI) PrintToolCall(call conversation.ToolCall) {
	u.flush()
	pterm.DefaultBox.WithTitle("Tool: " + call.Name).
		Println("Arguments:\n" + util.FormatArguments(call.Arguments))
}

// PrintToolResult shows what the tool returned
func (u *TraditionalUI) PrintToolResult(call conversation.ToolCall, output string, err error) {
	if err != nil {
		pterm.Error.Printfln("%s failed: %v", call.Name, err)
		return
	}
	pterm.DefaultBox.WithTitle("Result: " + call.Name).
		Println(util.Truncate(output, maxResultLen))
	if u.config.ShowSpinner {
		u.spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Thinking")
	}
}

// FinishResponse ends the reply
func (u *TraditionalUI) FinishResponse(result session.TurnResult) {
	u.flush()
	if result.Empty {
		pterm.Warning.Println(emptyMessage)
		return
	}
	if result.ToolCalls > 0 {
		pterm.Info.Printfln("%d tool call(s) this turn", result.ToolCalls)
	}
}

// PrintError prints an error message
func (u *TraditionalUI) PrintError(err error) {
	u.stopSpinner()
	if u.streaming || u.pending != "" {
		fmt.Fprintln(u.out)
	}
	u.pending = ""
	u.streaming = false
	pterm.Error.Println(err.Error())
}

// PrintExit says goodbye
func (u *TraditionalUI) PrintExit() {
	pterm.Info.Println(exitMessage)
}

// RequestPermission asks the user whether a tool may run
func (u *TraditionalUI) RequestPermission(ctx context.Context, request permission.Request) permission.Response {
	u.flush()
	pterm.DefaultBox.WithTitle("Permission Request").
		Println(permissionText(request, util.FormatArguments(request.Arguments)))

	confirmation, _ := pterm.DefaultInteractiveConfirm.
		WithConfirmText("Yes, allow this action").
		WithRejectText("No, deny this action").
		Show()
	if confirmation {
		return permission.Response{Granted: true}
	}

	u.readline.SetPrompt("What should I do instead? ")
	defer u.readline.SetPrompt(inputPrompt)
	alternate, _ := u.ReadLine(ctx)
	return permission.Response{Granted: false, AlternateAction: strings.TrimSpace(alternate)}
}

// Close releases the terminal
func (u *TraditionalUI) Close() error {
	u.stopSpinner()
	return u.readline.Close()
}

// flush writes out a held reply, rendered as markdown
func (u *TraditionalUI) flush() {
	u.stopSpinner()
	if u.pending != "" {
		fmt.Fprintln(u.out, string(md.Render(u.pending, 80, 0)))
		u.pending = ""
	} else if u.streaming {
		fmt.Fprintln(u.out)
	}
	u.streaming = false
}

func (u *TraditionalUI) stopSpinner() {
	if u.spinner == nil {
		return
	}
	_ = u.spinner.Stop()
	u.spinner = nil
}
