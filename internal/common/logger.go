package common

import (
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger installs the process-wide slog default, writing to stderr in
// the requested format.
func SetupLogger(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "console":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, format)
	}

	slog.SetDefault(slog.New(handler))

	return nil
}
