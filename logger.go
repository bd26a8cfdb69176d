package discrim

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with discrim-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogSkip logs a declaration skipped during a build.
func (l *Logger) LogSkip(ctx context.Context, name string, err error) {
	l.WarnContext(ctx, "declaration skipped",
		"name", name,
		"error", err,
	)
}

// LogBuild logs a completed build.
func (l *Logger) LogBuild(ctx context.Context, indexed, skipped, shards int) {
	l.InfoContext(ctx, "build completed",
		"indexed", indexed,
		"skipped", skipped,
		"shards", shards,
	)
}

// LogQuery logs a query.
func (l *Logger) LogQuery(ctx context.Context, matches int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"matches", matches,
		)
	}
}

// LogSave logs a cache save.
func (l *Logger) LogSave(ctx context.Context, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cache save failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cache saved",
			"path", path,
		)
	}
}

// LogLoad logs a cache load attempt.
func (l *Logger) LogLoad(ctx context.Context, path string, err error) {
	if err != nil {
		l.WarnContext(ctx, "cache unusable",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cache loaded",
			"path", path,
		)
	}
}
