package audio

import (
	"errors"
	"testing"
	"time"

	"sailtimer/pkg/config"
)

func TestNew_Defaults(t *testing.T) {
	m := New(&config.AudioConfig{Volume: 7})
	if m.Volume() != 1.0 {
		t.Errorf("out-of-range volume should fall back to 1.0, got %v", m.Volume())
	}
	if m.sampleRate != 48000 {
		t.Errorf("sample rate = %v, want 48000", m.sampleRate)
	}
}

func TestManager_Disabled(t *testing.T) {
	m := New(&config.AudioConfig{Enabled: false, Tones: true, Volume: 0.5})

	if err := m.Check(); !errors.Is(err, ErrDisabled) {
		t.Errorf("Check() = %v, want ErrDisabled", err)
	}
	if err := m.PlayFile("whatever.wav", nil); !errors.Is(err, ErrDisabled) {
		t.Errorf("PlayFile() = %v, want ErrDisabled", err)
	}
	if err := m.playTone(1000, 100*time.Millisecond); !errors.Is(err, ErrDisabled) {
		t.Errorf("playTone() = %v, want ErrDisabled", err)
	}

	// Must not panic or block without a device.
	m.PlayTone(1000, 100*time.Millisecond)
	m.Stop()
	m.Shutdown()
	if m.IsBusy() {
		t.Error("disabled manager should never be busy")
	}
}

func TestManager_TonesOff(t *testing.T) {
	m := New(&config.AudioConfig{Enabled: true, Tones: false})
	if err := m.playTone(1000, 100*time.Millisecond); !errors.Is(err, ErrDisabled) {
		t.Errorf("playTone() = %v, want ErrDisabled", err)
	}
}

func TestManager_SetVolume(t *testing.T) {
	m := New(&config.AudioConfig{Volume: 0.5})

	tests := []struct {
		in, want float64
	}{
		{0.3, 0.3},
		{-1, 0},
		{2, 1},
	}
	for _, tt := range tests {
		m.SetVolume(tt.in)
		if m.Volume() != tt.want {
			t.Errorf("SetVolume(%v): Volume() = %v, want %v", tt.in, m.Volume(), tt.want)
		}
	}
}

func TestVolumeToPower(t *testing.T) {
	if volumeToPower(1) != 0 {
		t.Error("unity volume should be power 0")
	}
	if volumeToPower(0.5) != -1 {
		t.Error("half volume should be power -1")
	}
	if volumeToPower(0) != -10 {
		t.Error("zero volume should be silent")
	}
}
