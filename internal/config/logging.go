package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger from LogLevel, LogFile and LogFormat.
// The returned close function releases the log file, if any.
func NewLogger(c Config, fallback io.Writer) (*slog.Logger, func() error, error) {
	var level slog.Level
	if c.LogLevel != "" {
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return nil, nil, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
		}
	}

	out := fallback
	closeFn := func() error { return nil }
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		_ = closeFn()
		return nil, nil, fmt.Errorf("%w: log_format %q", ErrInvalid, c.LogFormat)
	}

	return slog.New(handler), closeFn, nil
}
