package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

func writeTestWAV(t *testing.T, path string, d time.Duration) {
	t.Helper()
	format := beep.Format{SampleRate: 22050, NumChannels: 1, Precision: 2}
	tone, err := newToneStreamer(format.SampleRate, 440, d)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := wav.Encode(f, tone, format); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestGetDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue.wav")
	writeTestWAV(t, path, 500*time.Millisecond)

	got, err := GetDuration(path)
	if err != nil {
		t.Fatalf("GetDuration: %v", err)
	}
	if got < 490*time.Millisecond || got > 510*time.Millisecond {
		t.Errorf("duration = %v, want ~500ms", got)
	}
}

func TestDecodeMedia_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := DecodeMedia(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}

	junk := filepath.Join(dir, "junk.mp3")
	if err := os.WriteFile(junk, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := DecodeMedia(junk); err == nil {
		t.Error("expected error for undecodable file")
	}
}
