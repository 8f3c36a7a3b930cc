package edgetts

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sailtimer/pkg/tracker"
	"sailtimer/pkg/tts"
)

func TestHandleBinaryMessage(t *testing.T) {
	p := NewProvider(tracker.New())
	var buf bytes.Buffer

	header := []byte("info")
	audio := []byte{0x01, 0x02, 0x03, 0x04}
	data := append([]byte{0x00, 0x04}, header...)
	data = append(data, audio...)

	if err := p.handleBinaryMessage(data, &buf); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !bytes.Equal(buf.Bytes(), audio) {
		t.Errorf("Expected audio data %v, got %v", audio, buf.Bytes())
	}

	if err := p.handleBinaryMessage([]byte{0x00}, &buf); err != nil {
		t.Errorf("Too short message should be ignored, got %v", err)
	}
	if err := p.handleBinaryMessage([]byte{0x00, 0x09, 'x'}, &buf); err != nil {
		t.Errorf("Truncated header should be ignored, got %v", err)
	}
	if buf.Len() != len(audio) {
		t.Errorf("ignored messages must not write, got %d bytes", buf.Len())
	}
}

func TestVoices(t *testing.T) {
	p := NewProvider(nil)
	voices, err := p.Voices(context.TODO())
	if err != nil {
		t.Fatalf("Voices failed: %v", err)
	}
	found := false
	for _, v := range voices {
		if v.ID == "en-US-GuyNeural" {
			found = true
			break
		}
	}
	if !found {
		t.Error("Default voice not found in list")
	}
}

func TestGenerateSecMSGec(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	token := generateSecMSGec("client", now)
	if len(token) != 64 {
		t.Errorf("Expected token length 64, got %d", len(token))
	}
	if token != strings.ToUpper(token) {
		t.Error("token should be upper-case hex")
	}
	if generateSecMSGec("client", now.Add(2*time.Minute)) != token {
		t.Error("token should be stable within a five minute window")
	}
	if generateSecMSGec("client", now.Add(5*time.Minute)) == token {
		t.Error("token should roll over after five minutes")
	}
}

func TestCheck_MissingEnv(t *testing.T) {
	for _, k := range []string{"EDGE_TTS_ORIGIN", "EDGE_TTS_USER_AGENT", "EDGE_TTS_TRUSTED_CLIENT_TOKEN", "EDGE_TTS_SEC_MS_GEC_VERSION", "EDGE_TTS_BASE_URL"} {
		t.Setenv(k, "")
	}
	err := NewProvider(nil).Check()
	if !tts.IsFatalError(err) {
		t.Fatalf("Check() = %v, want fatal error", err)
	}
	if !strings.Contains(err.Error(), "EDGE_TTS_BASE_URL") {
		t.Errorf("error should name the missing variable: %v", err)
	}
}

func TestSynthesize_AgainstFakeService(t *testing.T) {
	audio := bytes.Repeat([]byte{0xAB}, 2048)
	gotSSML := make(chan string, 1)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("TrustedClientToken") != "tok" {
			http.Error(w, "bad token", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// speech.config then ssml
		for i := 0; i < 2; i++ {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if strings.Contains(string(msg), "Path:ssml") {
				gotSSML <- string(msg)
			}
		}

		hdr := []byte("Path:audio\r\n")
		frame := append([]byte{0x00, byte(len(hdr))}, hdr...)
		frame = append(frame, audio...)
		_ = conn.WriteMessage(websocket.BinaryMessage, frame)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("X-RequestId:1\r\nPath:turn.end\r\n\r\n{}"))
	}))
	defer srv.Close()

	t.Setenv("EDGE_TTS_ORIGIN", "chrome-extension://test")
	t.Setenv("EDGE_TTS_USER_AGENT", "sailtimer-test")
	t.Setenv("EDGE_TTS_TRUSTED_CLIENT_TOKEN", "tok")
	t.Setenv("EDGE_TTS_SEC_MS_GEC_VERSION", "1-0")
	t.Setenv("EDGE_TTS_BASE_URL", "ws"+strings.TrimPrefix(srv.URL, "http"))
	tts.SetLogPath("")
	defer tts.SetLogPath("logs/tts.log")

	tr := tracker.New()
	p := NewProvider(tr)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := p.Synthesize(ctx, "SAIL FAST", "en-US-GuyNeural", 1.2, filepath.Join(t.TempDir(), "cue"))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.HasSuffix(out, ".mp3") {
		t.Errorf("output path %q should end in .mp3", out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, audio) {
		t.Errorf("wrote %d bytes, want %d", len(data), len(audio))
	}

	ssml := <-gotSSML
	if !strings.Contains(ssml, "<prosody rate='+20%'>SAIL FAST</prosody>") {
		t.Errorf("unexpected ssml: %s", ssml)
	}
	if tr.Snapshot()[Name].Success != 1 {
		t.Error("success not tracked")
	}
}
