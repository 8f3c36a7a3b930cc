package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"sailtimer/pkg/config"
)

// Event is a race log entry (start, sail fast, adjustments, marks).
type Event struct {
	Timestamp time.Time
	Type      string
	Message   string
}

var (
	eventMu     sync.Mutex
	eventWriter io.Writer
)

// Init initializes the logging system based on configuration.
// It returns a cleanup function to close log files.
func Init(cfg *config.LogConfig, console io.Writer) (func(), error) {
	var closers []io.Closer

	serverFile, err := openRotating(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to setup server logger: %w", err)
	}
	closers = append(closers, serverFile)
	slog.SetDefault(slog.New(newHandler(serverFile, console, cfg.Server.Level)))
	SetTrace(strings.EqualFold(strings.TrimSpace(cfg.Server.Level), "TRACE"))

	if cfg.Events.Path != "" {
		eventsFile, err := openRotating(cfg.Events)
		if err != nil {
			serverFile.Close()
			return nil, fmt.Errorf("failed to setup event log: %w", err)
		}
		closers = append(closers, eventsFile)
		setEventWriter(eventsFile)
	}

	return func() {
		setEventWriter(nil)
		for _, c := range closers {
			c.Close()
		}
	}, nil
}

func openRotating(s config.LogSettings) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return nil, err
	}
	maxSize := s.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	return &lumberjack.Logger{
		Filename:   s.Path,
		MaxSize:    maxSize,
		MaxBackups: s.MaxBackups,
	}, nil
}

// ParseLevel maps a config level name to a slog.Level. TRACE is DEBUG plus
// per-tick logging. Unknown names map to INFO.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG", "TRACE":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(file io.Writer, console io.Writer, levelStr string) slog.Handler {
	level := ParseLevel(levelStr)

	handlers := []slog.Handler{
		slog.NewTextHandler(file, &slog.HandlerOptions{
			Level:     level,
			AddSource: level == slog.LevelDebug,
		}),
		slog.NewTextHandler(GlobalLogCapture, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}
	if console != nil {
		// Console stays at INFO or above so ticks don't flood the terminal.
		handlers = append(handlers, slog.NewTextHandler(console, &slog.HandlerOptions{
			Level: max(level, slog.LevelInfo),
		}))
	}
	return &multiHandler{handlers: handlers}
}

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler
// nolint:gocritic // r must be passed by value to implement slog.Handler
func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

func setEventWriter(w io.Writer) {
	eventMu.Lock()
	defer eventMu.Unlock()
	eventWriter = w
}

// LogEvent appends a race event to the event log and the event capture.
func LogEvent(event Event) {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	line := fmt.Sprintf("[%s] [%s] %s", ts.Format("2006-01-02 15:04:05"), event.Type, event.Message)

	eventMu.Lock()
	w := eventWriter
	if w != nil {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			slog.Error("failed to write event log", "error", err)
		}
	}
	eventMu.Unlock()

	_, _ = GlobalEventCapture.Write([]byte(line))
}
