package logging

import (
	"strings"
	"sync"
)

// LogCaptureWriter is a thread-safe writer that keeps the most recent lines.
type LogCaptureWriter struct {
	mu    sync.RWMutex
	lines []string
	limit int
}

// NewLogCaptureWriter returns a writer holding at most limit lines.
func NewLogCaptureWriter(limit int) *LogCaptureWriter {
	if limit <= 0 {
		limit = 1
	}
	return &LogCaptureWriter{limit: limit}
}

// GlobalLogCapture holds recent INFO+ log lines for the API and dashboard.
var GlobalLogCapture = NewLogCaptureWriter(50)

// GlobalEventCapture holds recent race events.
var GlobalEventCapture = NewLogCaptureWriter(20)

// Write implements io.Writer. Each call is stored as one line.
func (w *LogCaptureWriter) Write(p []byte) (n int, err error) {
	line := strings.TrimRight(string(p), "\n")
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, line)
	if len(w.lines) > w.limit {
		w.lines = w.lines[len(w.lines)-w.limit:]
	}
	return len(p), nil
}

// GetLastLine returns the most recent line, or "" if nothing was written.
func (w *LogCaptureWriter) GetLastLine() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.lines) == 0 {
		return ""
	}
	return w.lines[len(w.lines)-1]
}

// Lines returns a copy of the retained lines, oldest first.
func (w *LogCaptureWriter) Lines() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.lines...)
}
