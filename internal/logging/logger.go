// Package logging builds the structured logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	defaultFormat = "text"
	defaultLevel  = "info"
)

// Config is the validated logging configuration.
type Config struct {
	Format string
	Level  slog.Level
}

// DefaultConfig returns text output at info level.
func DefaultConfig() Config {
	return Config{
		Format: defaultFormat,
		Level:  slog.LevelInfo,
	}
}

// ParseConfig validates a format and level as read from the config file or
// LOG_FORMAT/LOG_LEVEL. Empty values select the defaults.
func ParseConfig(format, level string) (Config, error) {
	f, err := parseFormat(format)
	if err != nil {
		return Config{}, err
	}
	l, err := parseLevel(level)
	if err != nil {
		return Config{}, err
	}
	return Config{Format: f, Level: l}, nil
}

// NewLogger creates a logger carrying the app and command attributes.
// A nil writer logs to stderr so command output on stdout stays clean.
func NewLogger(cfg Config, writer io.Writer, command string) *slog.Logger {
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	command = strings.TrimSpace(command)
	if command == "" {
		command = "cosmoclear"
	}
	return slog.New(handler).With("app", "cosmoclear", "command", command)
}

// Bootstrap parses the configuration, installs the logger as the slog
// default and returns it.
func Bootstrap(format, level string, writer io.Writer, command string) (*slog.Logger, error) {
	cfg, err := ParseConfig(format, level)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg, writer, command)
	slog.SetDefault(logger)
	return logger, nil
}

func parseFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		return defaultFormat, nil
	}
	switch format {
	case "json", "text":
		return format, nil
	default:
		return "", fmt.Errorf("log format must be one of: text, json (got %q)", raw)
	}
}

func parseLevel(raw string) (slog.Level, error) {
	level := strings.ToLower(strings.TrimSpace(raw))
	if level == "" {
		level = defaultLevel
	}
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log level must be one of: debug, info, warn, error (got %q)", raw)
	}
}
