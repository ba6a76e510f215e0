package typeset

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/henry-luo/typeset/linebreak"
	"github.com/henry-luo/typeset/pagebreak"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message
// formatting entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for typeset and all its
// sub-packages. By default, typeset produces no log output.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Pass nil to disable logging (restore default silent
// behavior). Typesetter instances read the package logger on every
// operation, so a SetLogger call reaches existing instances too;
// collaborators a Typesetter holds (the hyphenation engine) are
// handed the logger when they are attached.
//
// Log levels used by typeset:
//   - [slog.LevelDebug]: per-candidate and per-opcode diagnostics
//   - [slog.LevelInfo]: lifecycle events (patterns loaded, document closed)
//   - [slog.LevelWarn]: recoverable degradation (overlong word skipped,
//     infeasible break recovered with artificial demerits)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	typeset.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full trace output:
//	typeset.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	linebreak.SetLogger(l)
	pagebreak.SetLogger(l)
}

// Logger returns the current logger used by typeset. Sub-packages
// and collaborators call this to share the same logger configuration
// without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by collaborators that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a collaborator if it
// implements the loggerSetter interface. Called when a collaborator
// is attached so it always starts with the current logger.
func propagateLogger(v any, l *slog.Logger) {
	if ls, ok := v.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
