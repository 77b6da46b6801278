package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// LogConfig is the logging configuration of the command.
type LogConfig struct {
	Level  slog.Level
	Format string
}

// LoadLogConfig loads the log configuration from the SQLBATCH_LOG_LEVEL
// and SQLBATCH_LOG_FMT environment variables. Non-empty arguments take
// precedence over the environment.
func LoadLogConfig(level, format string) (LogConfig, error) {
	if level == "" {
		level = os.Getenv("SQLBATCH_LOG_LEVEL")
	}
	if format == "" {
		format = os.Getenv("SQLBATCH_LOG_FMT")
	}
	logLevel, err := ParseLevel(level)
	if err != nil {
		return LogConfig{}, err
	}
	logFormat, err := ParseFormat(format)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{Level: logLevel, Format: logFormat}, nil
}

// ParseLevel parses a log level. The empty string is the info level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
	return l, nil
}

// ParseFormat parses a log format. The empty string is the text format.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format: %q", s)
	}
}

// Configure sets the default logger writing to w.
func (c LogConfig) Configure(w io.Writer) {
	opts := &slog.HandlerOptions{Level: c.Level}
	var h slog.Handler
	if c.Format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}
