package iqdb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with iqdb-specific context. This provides
// structured logging with consistent field names across ingest and
// query paths.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, uses default text handler to stderr.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs. level
// sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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

// NoopLogger creates a Logger that discards all log output. Use this to
// disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPostID adds a post_id field to the logger.
func (l *Logger) WithPostID(postID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("post_id", postID),
	}
}

// LogAddImage logs an ingest operation.
func (l *Logger) LogAddImage(ctx context.Context, postID string, width, height int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add image failed",
			"post_id", postID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add image completed",
			"post_id", postID,
			"width", width,
			"height", height,
		)
	}
}

// LogRemoveImage logs a removal operation.
func (l *Logger) LogRemoveImage(ctx context.Context, postID string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remove image failed",
			"post_id", postID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "remove image completed",
			"post_id", postID,
		)
	}
}

// LogQuery logs a similarity query.
func (l *Logger) LogQuery(ctx context.Context, numColors, wanted, found int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"num_colors", numColors,
			"wanted", wanted,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"num_colors", numColors,
			"wanted", wanted,
			"found", found,
		)
	}
}

// LogRebuild logs a full bucket index rebuild from the Catalog.
func (l *Logger) LogRebuild(ctx context.Context, imagesLoaded int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rebuild failed",
			"images_loaded", imagesLoaded,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "rebuild completed",
			"images_loaded", imagesLoaded,
		)
	}
}

// LogRebuildProgress reports periodic progress during a full rebuild, the
// way the reference server logs a heartbeat every fixed number of images
// loaded rather than on every single row.
func (l *Logger) LogRebuildProgress(ctx context.Context, imagesLoaded int) {
	l.InfoContext(ctx, "rebuild progress",
		"images_loaded", imagesLoaded,
	)
}
