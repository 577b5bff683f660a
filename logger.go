package palmvec

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/palmvec/embedding"
)

// Logger wraps slog.Logger with palmvec-specific fields.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a text handler to stderr at Info.
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

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewJSONLoggerTo(os.Stderr, level)
}

// NewJSONLoggerTo creates a Logger that writes JSON to w.
func NewJSONLoggerTo(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// ParseLevel parses debug, info, warn or error. Unknown values are Info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// WithOp adds an operation field.
func (l *Logger) WithOp(op string) *Logger {
	return &Logger{Logger: l.Logger.With("op", op)}
}

// WithIdentity adds the identity a request is about.
func (l *Logger) WithIdentity(id string) *Logger {
	return &Logger{Logger: l.Logger.With("identity", id)}
}

// WithCount adds a count field.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{Logger: l.Logger.With("count", count)}
}

// LogDecode logs a Base64 decode. Lossy repairs are logged at Warn.
func (l *Logger) LogDecode(ctx context.Context, rep embedding.Report, err error) {
	l.logReport(ctx, "decode", rep, err)
}

// LogNormalize logs a normalization. Lossy repairs are logged at Warn.
func (l *Logger) LogNormalize(ctx context.Context, rep embedding.Report, err error) {
	l.logReport(ctx, "normalize", rep, err)
}

func (l *Logger) logReport(ctx context.Context, op string, rep embedding.Report, err error) {
	switch {
	case err != nil:
		l.WarnContext(ctx, op+" rejected",
			"shape", rep.Shape.String(),
			"kind", embedding.KindOf(err).String(),
			"error", err,
		)
	case rep.Repaired():
		l.WarnContext(ctx, op+" repaired input",
			"shape", rep.Shape.String(),
			"repairs", rep.Repairs(),
			"raw_bytes", rep.RawBytes,
			"words", rep.Words,
			"non_finite", rep.NonFinite,
		)
	default:
		l.DebugContext(ctx, op+" completed",
			"shape", rep.Shape.String(),
			"non_finite", rep.NonFinite,
		)
	}
}

// LogIdentify logs an identification scan.
func (l *Logger) LogIdentify(ctx context.Context, res Identification, err error) {
	if err != nil {
		l.ErrorContext(ctx, "identify failed",
			"scanned", res.Scanned,
			"error", err,
		)
		return
	}
	if res.Matched {
		l.DebugContext(ctx, "identify matched",
			"identity", res.ID,
			"score", res.Score,
			"scanned", res.Scanned,
		)
		return
	}
	l.DebugContext(ctx, "identify found no match",
		"scanned", res.Scanned,
	)
}

// LogBatch logs a batch normalization.
func (l *Logger) LogBatch(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch normalize completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.DebugContext(ctx, "batch normalize completed",
			"count", count,
		)
	}
}

// LogSnapshot logs a gallery snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, name string, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"name", name,
			"records", records,
		)
	}
}
