package tts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// VerifyAudioFile checks that a synthesized file exists and is not truncated.
func VerifyAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file missing: %w", err)
	}
	if info.Size() < MinAudioSize {
		return fmt.Errorf("audio file too small (%d bytes): %s", info.Size(), path)
	}
	return nil
}

// CachePath returns a stable file path (without extension) for one utterance.
// The countdown only ever says a few dozen phrases, so every one is synthesized once.
func CachePath(dir, engine, voice, text string, rate float64) string {
	key := engine + "|" + voice + "|" + strconv.FormatFloat(rate, 'f', 2, 64) + "|" + text
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(dir, engine+"_"+hex.EncodeToString(sum[:8]))
}

// FindCached returns the existing cached file for base, trying known extensions.
func FindCached(base string) (string, bool) {
	for _, ext := range []string{".wav", ".mp3"} {
		if err := VerifyAudioFile(base + ext); err == nil {
			return base + ext, true
		}
	}
	return "", false
}
