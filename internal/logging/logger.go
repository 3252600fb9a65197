// Package logging provides structured logging with file and console output.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents logging levels
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogEntry is a single captured log line, kept in memory for the
// debug endpoint.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

// Logger wraps zerolog with file output and an in-memory history of
// recent entries.
type Logger struct {
	zlog    zerolog.Logger
	file    *os.File
	logPath string
	history *historyWriter
}

// Config holds logger configuration
type Config struct {
	LogDir     string   // Directory for log files (default: ~/.arcanus/logs)
	Level      LogLevel // Minimum log level (default: debug)
	MaxHistory int      // Max entries to keep in memory (default: 1000)
	Console    bool     // Also log to console (default: true)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		LogDir:     filepath.Join(home, ".arcanus", "logs"),
		Level:      LevelDebug,
		MaxHistory: 1000,
		Console:    true,
	}
}

// New creates a new Logger with file and console output
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFileName := fmt.Sprintf("arcanus_%s.log", time.Now().Format("2006-01-02"))
	logPath := filepath.Join(cfg.LogDir, logFileName)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	history := &historyWriter{max: cfg.MaxHistory}

	writers := []io.Writer{file, history}
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
	multi := io.MultiWriter(writers...)

	level := zerolog.DebugLevel
	switch cfg.Level {
	case LevelInfo:
		level = zerolog.InfoLevel
	case LevelWarn:
		level = zerolog.WarnLevel
	case LevelError:
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	zlog := zerolog.New(multi).With().
		Timestamp().
		Str("app", "arcanus").
		Logger()

	logger := &Logger{
		zlog:    zlog,
		file:    file,
		logPath: logPath,
		history: history,
	}

	initLog := logger.Component("logging")
	initLog.Info().
		Str("log_file", logPath).
		Str("level", string(cfg.Level)).
		Msg("Logger initialized")

	return logger, nil
}

// GetHistory returns the most recent captured log entries.
func (l *Logger) GetHistory(limit int) []LogEntry {
	return l.history.recent(limit)
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	return l.logPath
}

// Close closes the log file
func (l *Logger) Close() error {
	closeLog := l.Component("logging")
	closeLog.Info().Msg("Logger shutting down")
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Component returns a zerolog.Logger with the component field set
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zlog.With().Str("component", name).Logger()
}

// Zerolog returns the underlying zerolog.Logger
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// historyWriter captures zerolog's JSON lines into a bounded ring so
// every event is visible to the debug endpoint regardless of which
// component emitted it.
type historyWriter struct {
	mu      sync.RWMutex
	entries []LogEntry
	max     int
}

func (h *historyWriter) Write(p []byte) (int, error) {
	var line struct {
		Level     string `json:"level"`
		Component string `json:"component"`
		Message   string `json:"message"`
		Time      string `json:"time"`
	}
	if err := json.Unmarshal(p, &line); err != nil {
		return len(p), nil
	}

	h.mu.Lock()
	h.entries = append(h.entries, LogEntry{
		Timestamp: line.Time,
		Level:     line.Level,
		Component: line.Component,
		Message:   line.Message,
	})
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	h.mu.Unlock()

	return len(p), nil
}

func (h *historyWriter) recent(limit int) []LogEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.entries) {
		limit = len(h.entries)
	}
	start := len(h.entries) - limit
	result := make([]LogEntry, limit)
	copy(result, h.entries[start:])
	return result
}
