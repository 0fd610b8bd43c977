//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/attractor"
)

// loggerPtr holds the logger handed down by attractor.SetLogger. While it
// is unset the package follows attractor.Logger, which is silent by
// default.
var loggerPtr atomic.Pointer[slog.Logger]

// slogger returns the current package logger.
// All logging in internal/gpu goes through this function.
func slogger() *slog.Logger {
	if l := loggerPtr.Load(); l != nil {
		return l
	}
	return attractor.Logger()
}

// setLogger tags l with the backend name and makes it the package logger.
// nil reverts to following attractor.Logger.
func setLogger(l *slog.Logger) {
	if l == nil {
		loggerPtr.Store(nil)
		return
	}
	loggerPtr.Store(l.With("backend", attractor.BackendGPU))
}
