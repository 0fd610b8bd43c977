package attractor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
// It is set in a variable initializer so package init functions can log.
var loggerPtr = func() *atomic.Pointer[slog.Logger] {
	var p atomic.Pointer[slog.Logger]
	p.Store(newNopLogger())
	return &p
}()

// SetLogger configures the logger for attractor and all its sub-packages.
// By default, attractor produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by attractor:
//   - [slog.LevelDebug]: per-cycle statistics, GPU buffer sizes
//   - [slog.LevelInfo]: lifecycle events (configure, convergence, GPU adapter selected)
//   - [slog.LevelWarn]: non-fatal issues (CPU fallback, failed runs)
//
// Example:
//
//	attractor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	// Propagate to live engines that keep their own logger.
	liveMu.Lock()
	engines := make([]Engine, 0, len(liveEngines))
	for e := range liveEngines {
		engines = append(engines, e)
	}
	liveMu.Unlock()
	for _, e := range engines {
		propagateLogger(e, l)
	}
	for _, name := range backends.Available() {
		if b := backends.Get(name); b != nil {
			propagateLogger(b, l)
		}
	}
}

// Logger returns the current logger used by attractor.
// Sub-packages (gpu/, internal/gpu/) call this to share the same logger
// configuration without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by engines and backends that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to v if it implements the
// loggerSetter interface.
func propagateLogger(v any, l *slog.Logger) {
	if ls, ok := v.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// liveEngines tracks engines created by sessions so SetLogger can reach
// them after creation.
var (
	liveMu      sync.Mutex
	liveEngines = make(map[Engine]struct{})
)

func trackEngine(e Engine) {
	propagateLogger(e, Logger())
	liveMu.Lock()
	liveEngines[e] = struct{}{}
	liveMu.Unlock()
}

func untrackEngine(e Engine) {
	liveMu.Lock()
	delete(liveEngines, e)
	liveMu.Unlock()
}
