package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"projects-dashboard/internal/config"
)

// NewLogger builds the process logger. A nil out writes to stdout.
func NewLogger(cfg config.LoggerConfig, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       parseLogLevel(cfg.Level),
		AddSource:   true,
		ReplaceAttr: shortSource,
	}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

// parseLogLevel accepts slog's own level names plus "warning".
// Anything unparseable logs at info.
func parseLogLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// shortSource trims the source attribute to dir/file.go:line.
func shortSource(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey || len(groups) > 0 {
		return a
	}
	src, ok := a.Value.Any().(*slog.Source)
	if !ok || src == nil {
		return a
	}
	dir, file := filepath.Split(src.File)
	src.File = filepath.Join(filepath.Base(dir), file)
	return a
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext returns logger annotated with the request id and trace id
// carried by ctx.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := GetRequestID(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	if span := GetSpan(ctx); span != nil {
		logger = logger.With("trace_id", span.TraceID)
	}
	return logger
}
