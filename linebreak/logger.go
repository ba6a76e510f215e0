package linebreak

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var logPtr atomic.Pointer[slog.Logger]

func init() {
	logPtr.Store(slog.New(nopHandler{}))
}

// SetLogger sets the package logger. Degradation warnings from runs
// without a Trace logger go here; the default discards them. Pass
// nil to restore the default. Safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	logPtr.Store(l)
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	return logPtr.Load()
}
