// Package logger provides context-aware structured logging on top of
// logrus: handlers attach a logger entry to the context once and every
// layer below retrieves it with G(ctx).
package logger

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// G is shorthand for GetLogger.
	G = GetLogger
	// L is the global fallback entry used when the context carries no logger.
	L = logrus.NewEntry(newLogger())
)

type loggerKey struct{}

// WithLogger attaches a logger entry to the context.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry.WithContext(ctx))
}

// GetLogger returns the entry stored in the context, or the global fallback
// with the context attached.
func GetLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return entry
	}
	return L.WithContext(ctx)
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	applyFormat(l, "fmt")
	return l
}

func applyFormat(l *logrus.Logger, format string) {
	switch format {
	case "json":
		l.Formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	default:
		l.Formatter = &logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		}
	}
}

// SetLevel configures the global logger's level from a string such as
// "debug" or "warn".
func SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	L.Logger.SetLevel(parsed)
	return nil
}

// SetFormat switches the global logger between "fmt" and "json" output.
func SetFormat(format string) {
	applyFormat(L.Logger, format)
}

// SetOutput redirects the global logger. The MCP server logs to stderr so
// stdout stays clean for the protocol stream.
func SetOutput(w io.Writer) {
	L.Logger.SetOutput(w)
}
