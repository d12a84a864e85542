package llm

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// APILogger logs API requests and responses to a file
type APILogger interface {
	LogInteraction(req any, resp any, err error)
}

type FileLogger struct {
	mu          sync.Mutex
	logFilePath string
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Request   any    `json:"request,omitempty"`
	Response  any    `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewAPILogger creates a logger appending to api_logs.jsonl in configDir
func NewAPILogger(configDir string) *FileLogger {
	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		slog.Warn("couldn't create config directory", "dir", configDir, "err", err)
	}

	return &FileLogger{
		logFilePath: filepath.Join(configDir, "api_logs.jsonl"),
	}
}

// Path returns the log file location
func (l *FileLogger) Path() string {
	return l.logFilePath
}

// LogInteraction logs an API request/response pair
func (l *FileLogger) LogInteraction(req any, resp any, err error) {
	logEntry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Request:   req,
	}

	if err != nil {
		logEntry.Error = err.Error()
	} else if resp != nil {
		logEntry.Response = resp
	}

	logJSON, jsonErr := json.Marshal(logEntry)
	if jsonErr != nil {
		slog.Warn("couldn't marshal api log entry", "err", jsonErr)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Append to log file
	file, fileErr := os.OpenFile(l.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		slog.Warn("couldn't open api log file", "path", l.logFilePath, "err", fileErr)
		return
	}
	defer file.Close()

	if _, writeErr := file.Write(append(logJSON, '\n')); writeErr != nil {
		slog.Warn("couldn't write api log file", "path", l.logFilePath, "err", writeErr)
	}
}
