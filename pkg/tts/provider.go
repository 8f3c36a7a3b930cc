// Package tts turns announcement text into audio files.
package tts

import (
	"context"
	"errors"
	"strings"
)

const (
	// MinAudioSize is the smallest plausible synthesized file. Anything smaller is
	// treated as a failed synthesis. Short cues like "5" are still well above it.
	MinAudioSize = 1024
)

// Provider defines the interface for Text-To-Speech engines.
type Provider interface {
	// Name identifies the engine in logs and stats.
	Name() string

	// Synthesize renders text at the given rate (1.0 is normal speed) into
	// outputPath. The engine may append its own extension; the final path is returned.
	Synthesize(ctx context.Context, text, voice string, rate float64, outputPath string) (string, error)

	// Voices returns the voices the engine can use.
	Voices(ctx context.Context) ([]Voice, error)
}

// Voice represents an available TTS voice.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	IsNeural bool   `json:"is_neural"`
}

// ErrUnsupported is returned by engines that cannot run on this platform.
var ErrUnsupported = errors.New("tts engine not supported on this platform")

// FatalError is a failure that will not go away by retrying the same engine,
// such as missing credentials or an HTTP 4xx/5xx handshake.
type FatalError struct {
	StatusCode int
	Message    string
}

func (e *FatalError) Error() string {
	return e.Message
}

// NewFatalError creates a new FatalError with the given status code and message.
func NewFatalError(statusCode int, message string) *FatalError {
	return &FatalError{StatusCode: statusCode, Message: message}
}

// IsFatalError checks if err is or wraps a FatalError.
func IsFatalError(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// PickVoice returns the first voice speaking language, preferring neural voices.
func PickVoice(voices []Voice, language string) (string, bool) {
	var fallback string
	for _, v := range voices {
		if !strings.EqualFold(v.Language, language) {
			continue
		}
		if v.IsNeural {
			return v.ID, true
		}
		if fallback == "" {
			fallback = v.ID
		}
	}
	return fallback, fallback != ""
}
