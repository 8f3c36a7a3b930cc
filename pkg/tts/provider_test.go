package tts

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFatalError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Handshake rejected",
			err:      NewFatalError(403, "edge-tts: handshake rejected"),
			expected: true,
		},
		{
			name:     "Wrapped while prewarming",
			err:      fmt.Errorf("prewarm \"1 minute\": %w", NewFatalError(429, "Too Many Requests")),
			expected: true,
		},
		{
			name:     "Unsupported platform",
			err:      fmt.Errorf("windows-sapi: %w", ErrUnsupported),
			expected: false,
		},
		{
			name:     "Timeout",
			err:      errors.New("context deadline exceeded"),
			expected: false,
		},
		{
			name:     "Nil Error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatalError(tt.err))
		})
	}
}

func TestFatalError_StatusCode(t *testing.T) {
	err := fmt.Errorf("speak: %w", NewFatalError(401, "missing token"))

	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 401, fe.StatusCode)
	assert.Equal(t, "speak: missing token", err.Error())
}

func TestPickVoice(t *testing.T) {
	voices := []Voice{
		{ID: "david", Language: "en-US"},
		{ID: "hazel", Language: "en-GB"},
		{ID: "en-GB-SoniaNeural", Language: "en-GB", IsNeural: true},
	}

	tests := []struct {
		language string
		want     string
		ok       bool
	}{
		{language: "en-US", want: "david", ok: true},
		{language: "en-gb", want: "en-GB-SoniaNeural", ok: true},
		{language: "de-DE", want: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			got, ok := PickVoice(voices, tt.language)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
