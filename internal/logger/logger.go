package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	// Level is a zerolog level name; empty or unknown means info.
	Level  string
	Format string
	Output io.Writer
}

type Logger struct {
	base *zerolog.Logger
}

type ctxKey struct{}

func New(opts Options) *Logger {
	level := ParseLevel(opts.Level)
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	if opts.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	l := zerolog.New(output).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger().
		Level(level)
	return &Logger{base: &l}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	l := zerolog.Nop()
	return &Logger{base: &l}
}

func ParseLevel(value string) zerolog.Level {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(s); err == nil && lvl != zerolog.NoLevel {
		return lvl
	}
	return zerolog.InfoLevel
}

func (l *Logger) from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return entry
		}
	}
	return l.base
}

// WithField returns a context whose log lines carry key=value.
func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	entry := l.from(ctx).With().Interface(key, value).Logger()
	return context.WithValue(ctx, ctxKey{}, &entry)
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithNamespace(ctx context.Context, namespace string) context.Context {
	return l.WithField(ctx, "namespace", namespace)
}

func (l *Logger) Debugf(ctx context.Context, format string, args ...any) {
	l.from(ctx).Debug().Msgf(format, args...)
}

func (l *Logger) Infof(ctx context.Context, format string, args ...any) {
	l.from(ctx).Info().Msgf(format, args...)
}

func (l *Logger) Warnf(ctx context.Context, format string, args ...any) {
	l.from(ctx).Warn().Msgf(format, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.from(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}

func (l *Logger) Errorf(ctx context.Context, err error, format string, args ...any) {
	event := l.from(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msgf(format, args...)
}

// Request logs one served HTTP request.
func (l *Logger) Request(ctx context.Context, method, path string, status int, latency time.Duration) {
	event := l.from(ctx).Info()
	if status >= 500 {
		event = l.from(ctx).Error()
	}
	event.
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("latency", latency).
		Msg("http request")
}
