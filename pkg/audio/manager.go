// Package audio plays timer beeps and synthesized speech through the default output device.
package audio

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"sailtimer/pkg/config"
)

// ErrDisabled is returned when audio output is switched off in the configuration.
var ErrDisabled = errors.New("audio disabled")

// Service defines the interface for audio output.
type Service interface {
	// PlayTone starts a beep and returns immediately. Failures are logged.
	PlayTone(frequencyHz float64, duration time.Duration)
	// PlayFile starts playback of an MP3 or WAV file. onComplete runs when the
	// file ends or is stopped.
	PlayFile(path string, onComplete func()) error
	// Stop cuts off the current speech file. Tones are left to finish.
	Stop()
	// IsBusy reports whether a speech file is playing.
	IsBusy() bool
	SetVolume(vol float64)
	Volume() float64
	// Check initializes the output device and reports whether it is usable.
	Check() error
	Shutdown()
}

// Manager implements Service using gopxl/beep.
type Manager struct {
	mu                 sync.RWMutex
	enabled            bool
	tones              bool
	volume             float64
	sampleRate         beep.SampleRate
	speakerInitialized bool
	initErr            error

	ctrl     *beep.Ctrl
	streamer *effects.Volume
	track    beep.StreamSeekCloser
}

// New creates a Manager. The output device is opened on first use.
func New(cfg *config.AudioConfig) *Manager {
	sr := cfg.SampleRate
	if sr <= 0 {
		sr = 48000
	}
	vol := cfg.Volume
	if vol < 0 || vol > 1 {
		vol = 1.0
	}
	return &Manager{
		enabled:    cfg.Enabled,
		tones:      cfg.Tones,
		volume:     vol,
		sampleRate: beep.SampleRate(sr),
	}
}

// Check implements Service.
func (m *Manager) Check() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureSpeakerInitialized()
}

// PlayTone implements Service and timer.TonePlayer.
func (m *Manager) PlayTone(frequencyHz float64, duration time.Duration) {
	if err := m.playTone(frequencyHz, duration); err != nil && !errors.Is(err, ErrDisabled) {
		slog.Warn("Audio: Tone failed", "freq", frequencyHz, "error", err)
	}
}

func (m *Manager) playTone(frequencyHz float64, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.tones {
		return ErrDisabled
	}
	if err := m.ensureSpeakerInitialized(); err != nil {
		return err
	}

	tone, err := newToneStreamer(m.sampleRate, frequencyHz, duration)
	if err != nil {
		return err
	}
	speaker.Play(m.withVolume(tone))
	return nil
}

// PlayFile implements Service.
func (m *Manager) PlayFile(path string, onComplete func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureSpeakerInitialized(); err != nil {
		return err
	}
	m.stopLocked()

	streamer, format, err := DecodeMedia(path)
	if err != nil {
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, m.sampleRate, streamer)
	vol := m.withVolume(resampled)

	m.streamer = vol
	m.track = streamer
	ctrl := &beep.Ctrl{Streamer: vol}
	m.ctrl = ctrl

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		// Runs on the speaker goroutine; hand off so we never block it.
		go func() {
			m.mu.Lock()
			if m.ctrl == ctrl {
				m.ctrl = nil
				m.streamer = nil
				m.track = nil
				streamer.Close()
			}
			m.mu.Unlock()

			if onComplete != nil {
				onComplete()
			}
		}()
	})))

	slog.Debug("Audio: Playing", "path", path)
	return nil
}

// withVolume wraps s in the current volume. Caller holds m.mu.
func (m *Manager) withVolume(s beep.Streamer) *effects.Volume {
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   volumeToPower(m.volume),
		Silent:   m.volume <= silentBelow,
	}
}

// Stop implements Service.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.ctrl == nil {
		return
	}
	speaker.Lock()
	// An empty Ctrl reports end of stream, which lets the Seq run its callback.
	m.ctrl.Streamer = nil
	speaker.Unlock()

	if m.track != nil {
		m.track.Close()
	}
	m.ctrl = nil
	m.streamer = nil
	m.track = nil
}

func (m *Manager) ensureSpeakerInitialized() error {
	if !m.enabled {
		return ErrDisabled
	}
	if m.speakerInitialized {
		return nil
	}
	if m.initErr != nil {
		return m.initErr
	}

	if err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/10)); err != nil {
		slog.Error("Audio: Failed to initialize speaker", "error", err)
		// Remember the failure; retrying every tick would flood the log.
		m.initErr = err
		return err
	}
	m.speakerInitialized = true
	slog.Info("Audio: Speaker initialized", "sample_rate", int(m.sampleRate))
	return nil
}

// Shutdown stops playback and releases the output device.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	if m.speakerInitialized {
		speaker.Clear()
		speaker.Close()
		m.speakerInitialized = false
	}
}

// IsBusy implements Service.
func (m *Manager) IsBusy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil
}

// SetVolume sets playback volume (0.0 to 1.0). A playing file follows immediately.
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	m.volume = vol

	if m.streamer != nil {
		speaker.Lock()
		m.streamer.Volume = volumeToPower(vol)
		m.streamer.Silent = vol <= silentBelow
		speaker.Unlock()
	}
}

// Volume returns the current volume level.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}
