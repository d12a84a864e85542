// Package ui implements the terminal side of a chat session: reading input,
// echoing the model's reply as it streams and showing tool activity.
package ui

import (
	"fmt"
	"path/filepath"

	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/config"
	"github.com/recrsn/mcpchat/internal/llm"
	"github.com/recrsn/mcpchat/internal/permission"
	"github.com/recrsn/mcpchat/internal/session"
)

const (
	exitMessage  = "Exiting chat..."
	emptyMessage = "No assistant message received."
	inputPrompt  = "> "
	// maxResultLen bounds how much of a tool result is echoed
	maxResultLen = 2000
)

// UserInterface is a session UI that also shows the startup banner and
// answers permission prompts
type UserInterface interface {
	session.UI
	permission.Handler
	ShowHeader(conn llm.Connection, serverName string, cat *catalog.Catalog)
	Close() error
}

var (
	_ UserInterface = (*TraditionalUI)(nil)
	_ UserInterface = (*PlainUI)(nil)
)

// ConnectionLines describes how the backend was reached
func ConnectionLines(conn llm.Connection) []string {
	var lines []string
	if conn.Auth != "" {
		lines = append(lines, fmt.Sprintf("Connected to %s using %s authentication", conn.Provider, conn.Auth))
	} else {
		lines = append(lines, fmt.Sprintf("Connected to %s", conn.Provider))
	}
	if conn.Model != "" {
		if conn.Provider == "Azure OpenAI" {
			lines = append(lines, "Using deployment: "+conn.Model)
		} else {
			lines = append(lines, "Using model: "+conn.Model)
		}
	}
	return lines
}

// historyPath resolves the readline history file, relative names living in
// the data directory
func historyPath(cfg config.UIConfig) (string, error) {
	if cfg.HistoryFile == "" || filepath.IsAbs(cfg.HistoryFile) {
		return cfg.HistoryFile, nil
	}
	dataDir, err := config.GetDataDir()
	if err != nil {
		return "", fmt.Errorf("failed to get data directory: %w", err)
	}
	return filepath.Join(dataDir, cfg.HistoryFile), nil
}

// permissionText formats a permission request for display
func permissionText(request permission.Request, args string) string {
	text := fmt.Sprintf("Tool: %s\n\n", request.ToolName)
	if request.Title != "" && request.Title != request.ToolName {
		text += request.Title + "\n\n"
	}
	return text + "Arguments:\n" + args
}
