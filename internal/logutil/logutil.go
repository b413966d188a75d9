// Package logutil configures slog output for the hourglass tools.
package logutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"
)

// LevelTrace is below debug and is used for per-layer construction records.
const LevelTrace slog.Level = -8

// NewLogger returns a text logger that writes short source locations and
// prints LevelTrace as TRACE.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if lvl, ok := attr.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}

// Level picks the logging level from the debug and trace switches.
func Level(debug, trace bool) slog.Level {
	switch {
	case trace:
		return LevelTrace
	case debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Trace logs msg at LevelTrace on logger, skipping the work when the level is disabled.
func Trace(logger *slog.Logger, msg string, args ...any) {
	ctx := context.Background()
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(2, pcs[:]) // skip Callers and Trace
	record := slog.NewRecord(time.Now(), LevelTrace, msg, pcs[0])
	record.Add(args...)
	_ = logger.Handler().Handle(ctx, record)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
