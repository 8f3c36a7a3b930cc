package tts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tts.log")
	SetLogPath(path)
	t.Cleanup(func() { SetLogPath("") })

	Log("edge-tts", "1 minute", 0.8, nil)
	Log("edge-tts", "10", 1.2, errors.New("handshake rejected"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[edge-tts] rate=0.80 OK | 1 minute")
	assert.Contains(t, lines[1], "[edge-tts] rate=1.20 ERROR(handshake rejected) | 10")
}

func TestLog_Disabled(t *testing.T) {
	dir := t.TempDir()
	SetLogPath("")
	Log("windows-sapi", "30 seconds", 1, nil)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
