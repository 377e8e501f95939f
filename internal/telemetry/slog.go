package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogger installs the process-wide slog default logger from the logging
// configuration.
//
// format "json" selects the JSON handler; anything else gets the text
// handler. output "stderr" writes to stderr, any other value to stdout.
// level accepts debug, info, warn, and error (case-insensitive), defaulting
// to info; debug additionally records source locations. A non-empty service
// name is attached to every record so log aggregators can tell this service
// apart from its neighbours.
func SetupLogger(format, level, output, service string) {
	var w io.Writer = os.Stdout
	if strings.EqualFold(output, "stderr") {
		w = os.Stderr
	}

	logger := buildLogger(w, format, level, service)
	slog.SetDefault(logger)
	logger.Info("logger initialised", "format", format, "level", parseLogLevel(level).String())
}

func buildLogger(w io.Writer, format, level, service string) *slog.Logger {
	lvl := parseLogLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if service != "" {
		logger = logger.With("service", service)
	}
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
