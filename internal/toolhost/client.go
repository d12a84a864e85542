// Package toolhost talks to the external MCP server that hosts the tools
// offered to the model.
package toolhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/config"
)

// ErrToolFailed means the tool host reported a failure for a tool call
var ErrToolFailed = errors.New("tool execution failed")

// transportBuilder is overridden in tests to stub the transport factory.
var transportBuilder = buildTransport

const clientName = "mcpchat"

// Version is reported to tool hosts during the handshake
var Version = "dev"

// Client wraps the official MCP SDK client
type Client struct {
	impl    *mcpsdk.Client
	session *mcpsdk.ClientSession
	spec    string
	dir     string
	logger  *slog.Logger

	once       sync.Once
	connectErr error
}

// NewClient creates a client for the tool host described by cfg. Nothing is
// started until the first call.
func NewClient(cfg config.ToolHostConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	impl := mcpsdk.NewClient(&mcpsdk.Implementation{Name: clientName, Version: Version}, nil)
	return &Client{impl: impl, spec: cfg.Command, dir: cfg.Dir, logger: logger}
}

// Connect starts the tool host and performs the MCP handshake. It is safe
// to call more than once; only the first call does any work.
func (c *Client) Connect(ctx context.Context) error {
	c.once.Do(func() {
		transport, err := transportBuilder(ctx, c.spec, c.dir)
		if err != nil {
			c.connectErr = fmt.Errorf("build transport: %w", err)
			return
		}
		session, err := c.impl.Connect(ctx, transport, nil)
		if err != nil {
			c.connectErr = fmt.Errorf("connecting to tool host: %w", err)
			return
		}
		c.session = session
		c.logger.Debug("connected to tool host", "spec", c.spec, "server", c.ServerName())
	})
	return c.connectErr
}

// ServerName returns the name and version the tool host announced
func (c *Client) ServerName() string {
	if c.session == nil {
		return ""
	}
	res := c.session.InitializeResult()
	if res == nil || res.ServerInfo == nil {
		return ""
	}
	if res.ServerInfo.Version == "" {
		return res.ServerInfo.Name
	}
	return res.ServerInfo.Name + " " + res.ServerInfo.Version
}

// ListTools fetches the full tool list
func (c *Client) ListTools(ctx context.Context) ([]catalog.Descriptor, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	var tools []catalog.Descriptor
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("listing tools: %w", err)
		}
		d, err := toDescriptor(tool)
		if err != nil {
			return nil, err
		}
		tools = append(tools, d)
	}
	c.logger.Debug("listed tools", "count", len(tools))
	return tools, nil
}

// InvokeTool calls the named tool with raw JSON arguments and returns its
// textual output. Failures reported by the tool wrap ErrToolFailed.
func (c *Client) InvokeTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	if err := c.Connect(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolFailed, err)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	result, err := c.session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s: %w", ErrToolFailed, name, err)
	}

	output := resultText(result)
	if result.IsError {
		return "", fmt.Errorf("%w: %s: %s", ErrToolFailed, name, output)
	}
	c.logger.Debug("tool call finished", "tool", name, "bytes", len(output))
	return output, nil
}

// Close shuts down the session and the tool host process
func (c *Client) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func toDescriptor(tool *mcpsdk.Tool) (catalog.Descriptor, error) {
	if tool == nil {
		return catalog.Descriptor{}, errors.New("tool host listed a nil tool")
	}
	d := catalog.Descriptor{Name: tool.Name, Description: tool.Description}
	if tool.InputSchema != nil {
		raw, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return catalog.Descriptor{}, fmt.Errorf("tool %q: encoding input schema: %w", tool.Name, err)
		}
		d.Schema = raw
	}
	return d, nil
}

// resultText flattens tool result content. Text parts are joined by
// newlines, other content is rendered as JSON.
func resultText(result *mcpsdk.CallToolResult) string {
	if result == nil {
		return ""
	}
	parts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		switch v := content.(type) {
		case *mcpsdk.TextContent:
			parts = append(parts, v.Text)
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				continue
			}
			parts = append(parts, string(raw))
		}
	}
	if len(parts) == 0 && result.StructuredContent != nil {
		if raw, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, string(raw))
		}
	}
	return strings.Join(parts, "\n")
}
