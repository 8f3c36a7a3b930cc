// Package voice speaks countdown cues: it synthesizes them through a TTS engine,
// caches the audio, and plays it without ever blocking the timer.
package voice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"sailtimer/pkg/announcement"
	"sailtimer/pkg/audio"
	"sailtimer/pkg/tracker"
	"sailtimer/pkg/tts"
)

const (
	// Channel is the tracker key for spoken cues.
	Channel = "speech"

	queueSize = 8
	// A cue that waited longer than this is no longer true and is skipped.
	defaultMaxAge = 1500 * time.Millisecond
	// Upper bound on waiting for playback before the next cue may start.
	maxPlayback = 3 * time.Second
	// Slack on top of the decoded length before playback counts as stuck.
	playbackMargin = 250 * time.Millisecond
)

// Options configures a Speaker.
type Options struct {
	Voice    string
	CacheDir string
	Timeout  time.Duration // per synthesis request
	MaxAge   time.Duration
}

type request struct {
	text string
	rate float64
	at   time.Time
}

// Speaker implements timer.Speaker. Without a provider or audio output it
// only logs what it would have said.
type Speaker struct {
	provider tts.Provider
	audio    audio.Service
	tracker  *tracker.Tracker
	opts     Options

	queue    chan request
	disabled atomic.Bool // set after a fatal engine error

	mu   sync.RWMutex
	last string

	renderMu sync.Mutex
	inflight map[string]*sync.Mutex // per cache path
}

// NewSpeaker creates a Speaker. provider and out may be nil.
func NewSpeaker(provider tts.Provider, out audio.Service, t *tracker.Tracker, opts Options) *Speaker {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultMaxAge
	}
	if opts.CacheDir == "" {
		opts.CacheDir = os.TempDir()
	}
	if t == nil {
		t = tracker.New()
	}
	return &Speaker{
		provider: provider,
		audio:    out,
		tracker:  t,
		opts:     opts,
		queue:    make(chan request, queueSize),
		inflight: make(map[string]*sync.Mutex),
	}
}

// Speak queues text and returns immediately. When the queue is full the cue is dropped.
func (s *Speaker) Speak(text string, rate float64) {
	s.mu.Lock()
	s.last = text
	s.mu.Unlock()

	select {
	case s.queue <- request{text: text, rate: rate, at: time.Now()}:
	default:
		s.tracker.TrackDropped(Channel)
		slog.Warn("Voice: Queue full, dropping cue", "text", text)
	}
}

// Last returns the most recent text handed to Speak.
func (s *Speaker) Last() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Run processes the queue until ctx is cancelled.
func (s *Speaker) Run(ctx context.Context) {
	slog.Info("Voice: Speaker started", "engine", s.engineName(), "voice", s.opts.Voice)
	for {
		select {
		case <-ctx.Done():
			if s.audio != nil {
				s.audio.Stop()
			}
			slog.Info("Voice: Speaker stopped")
			return
		case req := <-s.queue:
			s.handle(ctx, req)
		}
	}
}

func (s *Speaker) handle(ctx context.Context, req request) {
	if age := time.Since(req.at); age > s.opts.MaxAge {
		s.tracker.TrackDropped(Channel)
		slog.Debug("Voice: Skipping stale cue", "text", req.text, "age", age)
		return
	}

	if !s.canSpeak() {
		slog.Info("Voice: " + req.text)
		return
	}

	path, err := s.render(ctx, req.text, req.rate)
	if err != nil {
		s.fail(req.text, err)
		return
	}

	done := make(chan struct{})
	if err := s.audio.PlayFile(path, func() { close(done) }); err != nil {
		s.fail(req.text, err)
		return
	}
	s.tracker.TrackSuccess(Channel)

	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(playbackLimit(path)):
		s.audio.Stop()
	}
}

// playbackLimit is how long a cue may play before it is cut off: its own
// length plus a margin, never more than maxPlayback.
func playbackLimit(path string) time.Duration {
	d, err := audio.GetDuration(path)
	if err != nil || d <= 0 {
		return maxPlayback
	}
	return min(d+playbackMargin, maxPlayback)
}

// render returns a playable file for the utterance, synthesizing it on a cache miss.
func (s *Speaker) render(ctx context.Context, text string, rate float64) (string, error) {
	base := tts.CachePath(s.opts.CacheDir, s.provider.Name(), s.opts.Voice, text, rate)
	if path, ok := tts.FindCached(base); ok {
		s.tracker.TrackCacheHit(Channel)
		return path, nil
	}

	// Prewarm and Run may ask for the same cue at once.
	unlock := s.lockPath(base)
	defer unlock()
	if path, ok := tts.FindCached(base); ok {
		s.tracker.TrackCacheHit(Channel)
		return path, nil
	}
	s.tracker.TrackCacheMiss(Channel)

	if err := os.MkdirAll(s.opts.CacheDir, 0o755); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	path, err := s.provider.Synthesize(ctx, text, s.opts.Voice, rate, base)
	if err != nil {
		return "", err
	}
	if err := tts.VerifyAudioFile(path); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *Speaker) lockPath(base string) func() {
	s.renderMu.Lock()
	m, ok := s.inflight[base]
	if !ok {
		m = &sync.Mutex{}
		s.inflight[base] = m
	}
	s.renderMu.Unlock()

	m.Lock()
	return m.Unlock
}

// Prewarm synthesizes every cue a countdown from maxSeconds can produce so
// that race-time playback never waits for the network.
func (s *Speaker) Prewarm(ctx context.Context, maxSeconds int, rates announcement.RatePolicy) error {
	if !s.canSpeak() {
		return nil
	}

	cues := announcement.All(maxSeconds)
	start := time.Now()
	for _, c := range cues {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.render(ctx, c.Text, rates.Rate(c.Remaining)); err != nil {
			if tts.IsFatalError(err) || errors.Is(err, tts.ErrUnsupported) {
				s.disable(err)
				return err
			}
			slog.Warn("Voice: Prewarm failed", "text", c.Text, "error", err)
		}
	}
	slog.Info("Voice: Cue cache ready", "cues", len(cues), "took", time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Speaker) canSpeak() bool {
	return s.provider != nil && s.audio != nil && !s.disabled.Load()
}

func (s *Speaker) fail(text string, err error) {
	s.tracker.TrackFailure(Channel)
	if tts.IsFatalError(err) || errors.Is(err, tts.ErrUnsupported) || errors.Is(err, audio.ErrDisabled) {
		s.disable(err)
	} else {
		slog.Warn("Voice: Cue failed", "text", text, "error", err)
	}
	// The cue still reaches the log so nothing is silently lost.
	slog.Info("Voice: " + text)
}

func (s *Speaker) disable(err error) {
	if s.disabled.CompareAndSwap(false, true) {
		slog.Error("Voice: Speech disabled, falling back to log output", "engine", s.engineName(), "error", err)
	}
}

func (s *Speaker) engineName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}
