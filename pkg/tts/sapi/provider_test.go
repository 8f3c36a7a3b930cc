package sapi

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"sailtimer/pkg/tts"
)

func TestRateToSAPI(t *testing.T) {
	tests := []struct {
		rate float64
		want int32
	}{
		{1.0, 0},
		{0.8, -2},
		{1.2, 2},
		{3.0, 10},
		{10.0, 10},
		{1.0 / 3, -10},
		{0.01, -10},
		{0, 0},
		{-1, 0},
	}
	for _, tt := range tests {
		if got := rateToSAPI(tt.rate); got != tt.want {
			t.Errorf("rateToSAPI(%v) = %d, want %d", tt.rate, got, tt.want)
		}
	}
}

func TestLanguageFromLCID(t *testing.T) {
	tests := map[string]string{
		"409":   "en-US",
		"409;9": "en-US",
		"809":   "en-GB",
		"40C":   "fr-FR",
		"411":   "411",
	}
	for in, want := range tests {
		if got := languageFromLCID(in); got != want {
			t.Errorf("languageFromLCID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSynthesize_Unsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SAPI is available on Windows")
	}
	p := NewProvider()
	if p.Name() != "windows-sapi" {
		t.Errorf("Name() = %q", p.Name())
	}
	_, err := p.Synthesize(context.Background(), "5 minutes", "", 0.8, t.TempDir()+"/x")
	if !errors.Is(err, tts.ErrUnsupported) {
		t.Errorf("Synthesize() error = %v, want ErrUnsupported", err)
	}
	if _, err := p.Voices(context.Background()); !errors.Is(err, tts.ErrUnsupported) {
		t.Errorf("Voices() error = %v, want ErrUnsupported", err)
	}
}
