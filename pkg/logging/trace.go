package logging

import (
	"log/slog"
	"sync/atomic"
)

var traceEnabled atomic.Bool

// SetTrace turns per-tick trace logging on or off.
func SetTrace(on bool) {
	traceEnabled.Store(on)
}

// Trace logs at DEBUG level, but only when tracing is on. Used on the 1 Hz paths.
func Trace(msg string, args ...any) {
	if traceEnabled.Load() {
		slog.Debug(msg, args...)
	}
}
