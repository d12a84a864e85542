package toolhost

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	stdioSchemePrefix = "stdio://"
	sseSchemePrefix   = "sse://"
	httpHintType      = "http"
	sseHintType       = "sse"
)

// buildTransport turns a tool host spec into an MCP transport:
//
//	stdio://cmd args     run cmd and speak MCP over its stdio
//	sse://host/path      legacy SSE transport
//	http+stream://...    streamable HTTP (also http+sse:// for SSE)
//	http(s)://...        SSE
//	anything else        a command line, run over stdio
func buildTransport(_ context.Context, spec, dir string) (mcpsdk.Transport, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("tool host spec is empty")
	}

	lowered := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lowered, stdioSchemePrefix):
		return buildStdioTransport(spec[len(stdioSchemePrefix):], dir)
	case strings.HasPrefix(lowered, sseSchemePrefix):
		target := strings.TrimSpace(spec[len(sseSchemePrefix):])
		endpoint, err := normalizeHTTPURL(target, true)
		if err != nil {
			return nil, fmt.Errorf("invalid SSE endpoint: %w", err)
		}
		return &mcpsdk.SSEClientTransport{Endpoint: endpoint}, nil
	}

	if kind, endpoint, matched, err := parseHTTPFamilySpec(spec); err != nil {
		return nil, err
	} else if matched {
		if kind == httpHintType {
			return &mcpsdk.StreamableClientTransport{Endpoint: endpoint}, nil
		}
		return &mcpsdk.SSEClientTransport{Endpoint: endpoint}, nil
	}

	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		endpoint, err := normalizeHTTPURL(spec, false)
		if err != nil {
			return nil, fmt.Errorf("invalid SSE endpoint: %w", err)
		}
		return &mcpsdk.SSEClientTransport{Endpoint: endpoint}, nil
	}

	return buildStdioTransport(spec, dir)
}

// buildStdioTransport starts no process yet. The child outlives the context
// used to connect and is stopped by Client.Close.
func buildStdioTransport(cmdSpec, dir string) (mcpsdk.Transport, error) {
	parts := strings.Fields(strings.TrimSpace(cmdSpec))
	if len(parts) == 0 {
		return nil, fmt.Errorf("stdio command is empty")
	}
	// #nosec G204 -- the command comes from the user's own configuration
	command := exec.Command(parts[0], parts[1:]...)
	command.Dir = dir
	return &mcpsdk.CommandTransport{Command: command}, nil
}

// parseHTTPFamilySpec recognizes http+<hint>:// and https+<hint>:// specs
func parseHTTPFamilySpec(spec string) (kind string, endpoint string, matched bool, err error) {
	u, parseErr := url.Parse(strings.TrimSpace(spec))
	if parseErr != nil || u.Scheme == "" {
		return "", "", false, nil
	}
	base, hint, hasHint := strings.Cut(strings.ToLower(u.Scheme), "+")
	if !hasHint || (base != "http" && base != "https") {
		return "", "", false, nil
	}

	switch hint {
	case "sse":
		kind = sseHintType
	case "stream", "streamable", "http":
		kind = httpHintType
	default:
		return "", "", true, fmt.Errorf("unsupported HTTP transport hint %q", hint)
	}
	normalized := *u
	normalized.Scheme = base
	endpoint, err = normalizeHTTPURL(normalized.String(), false)
	if err != nil {
		return "", "", true, fmt.Errorf("invalid %s endpoint: %w", kind, err)
	}
	return kind, endpoint, true, nil
}

func normalizeHTTPURL(raw string, allowSchemeGuess bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("endpoint is empty")
	}
	if allowSchemeGuess && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	parsed.Scheme = scheme
	return parsed.String(), nil
}
