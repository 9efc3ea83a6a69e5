package log

import (
	"context"
	"log/slog"
	"os"
)

// Logger is a slog.Logger that stamps every record with the owning
// component, so log lines from the API, the backup worker and the
// scheduler can be told apart in shared output.
type Logger struct {
	*slog.Logger
	component string
}

// Config selects the level and owning component for a new logger. A
// nil Handler means text output on stdout.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}
	return &Logger{
		Logger:    slog.New(handler),
		component: config.Component,
	}
}

// With returns a logger carrying extra attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// WithComponent returns a logger attributed to a different component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger,
		component: component,
	}
}

// log prepends the component attribute so call sites never repeat it.
func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l.Logger.Log(ctx, level, msg, append([]any{FieldComponent, l.component}, args...)...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

// SetDefault routes the package-level slog calls through logger, so
// code deeper in the stack inherits the process's handler.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
