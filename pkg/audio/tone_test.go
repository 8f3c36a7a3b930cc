package audio

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
)

func drain(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}

func TestNewToneStreamer(t *testing.T) {
	sr := beep.SampleRate(48000)

	tests := []struct {
		name    string
		freq    float64
		dur     time.Duration
		samples int
	}{
		{"start cue", 1000, 150 * time.Millisecond, 7200},
		{"reset cue", 400, 200 * time.Millisecond, 9600},
		{"add cue", 1200, 100 * time.Millisecond, 4800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := newToneStreamer(sr, tt.freq, tt.dur)
			if err != nil {
				t.Fatalf("newToneStreamer: %v", err)
			}
			out := drain(s)
			if len(out) != tt.samples {
				t.Errorf("samples = %d, want %d", len(out), tt.samples)
			}

			peak := 0.0
			for _, smp := range out {
				peak = math.Max(peak, math.Abs(smp[0]))
			}
			if peak > 1.0001 || peak < 0.5 {
				t.Errorf("peak amplitude = %v", peak)
			}
			if math.Abs(out[0][0]) > 1e-9 {
				t.Errorf("tone should start silent, got %v", out[0][0])
			}
		})
	}
}

func TestNewToneStreamer_Invalid(t *testing.T) {
	sr := beep.SampleRate(48000)
	if _, err := newToneStreamer(sr, 1000, 0); err == nil {
		t.Error("expected error for zero duration")
	}
	if _, err := newToneStreamer(sr, 30000, 100*time.Millisecond); err == nil {
		t.Error("expected error for frequency above Nyquist")
	}
}
