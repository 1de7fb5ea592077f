package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	requestIDKey = "request_id"
	userIDKey    = "user_id"
	envLogLevel  = "LOG_LEVEL"
)

var (
	level         = new(slog.LevelVar)
	defaultLogger *slog.Logger
)

func init() {
	level.Set(parseLevel(os.Getenv(envLogLevel)))
	defaultLogger = New(os.Stdout)
}

// New returns a JSON logger writing to w that follows the package level.
func New(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	}))
}

// SetLevel changes the level of every logger built by this package.
// Accepts debug, info, warn and error; anything else means info.
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

type contextKey struct{}

var loggerKey = &contextKey{}

// FromContext returns the logger from context, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return defaultLogger
}

// WithContext returns a new context that carries the given logger.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithRequestID returns a new context whose logger includes the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return WithContext(ctx, FromContext(ctx).With(requestIDKey, id))
}

// WithUserID returns a new context whose logger includes the authenticated user.
func WithUserID(ctx context.Context, id string) context.Context {
	return WithContext(ctx, FromContext(ctx).With(userIDKey, id))
}

// Error logs with error level. args are alternating key-value pairs (e.g. "error", err).
func Error(ctx context.Context, message string, args ...any) {
	FromContext(ctx).ErrorContext(ctx, message, args...)
}

// Info logs with info level. args are alternating key-value pairs.
func Info(ctx context.Context, message string, args ...any) {
	FromContext(ctx).InfoContext(ctx, message, args...)
}

// Debug logs with debug level. args are alternating key-value pairs.
func Debug(ctx context.Context, message string, args ...any) {
	FromContext(ctx).DebugContext(ctx, message, args...)
}

// Warn logs with warn level. args are alternating key-value pairs.
func Warn(ctx context.Context, message string, args ...any) {
	FromContext(ctx).WarnContext(ctx, message, args...)
}
