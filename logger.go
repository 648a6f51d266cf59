package seqsearch

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/seqsearch/engine"
)

// Logger wraps slog.Logger with seqsearch-specific helpers.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithDB adds a database path field.
func (l *Logger) WithDB(name, path string) *Logger {
	return &Logger{
		Logger: l.Logger.With(name, path),
	}
}

// LogRun logs a finished or failed alignment run.
func (l *Logger) LogRun(ctx context.Context, stats engine.Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "search completed",
		"queries", stats.Queries,
		"candidates", stats.Candidates,
		"attempted", stats.Attempted,
		"passed", stats.Passed,
		"zero_hit_queries", stats.ZeroHitQueries,
		"rejected_length_ratio", stats.Rejections.LengthRatio,
		"rejected_eval", stats.Rejections.Eval,
		"rejected_qcov", stats.Rejections.QCov,
		"rejected_dbcov", stats.Rejections.DBCov,
		"duration", stats.Duration,
	)
}

// LogProfile logs a profile build.
func (l *Logger) LogProfile(ctx context.Context, key string, length int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "profile build failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "profile built",
			"key", key,
			"length", length,
		)
	}
}

// LogPublish logs a publish operation.
func (l *Logger) LogPublish(ctx context.Context, prefix string, blobs int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"prefix", prefix,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "publish completed",
			"prefix", prefix,
			"blobs", blobs,
			"bytes", bytes,
		)
	}
}
