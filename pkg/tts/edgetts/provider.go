package edgetts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sailtimer/pkg/tracker"
	"sailtimer/pkg/tts"
)

// Name is the engine identifier used in config and stats.
const Name = "edge-tts"

// Provider implements tts.Provider for Microsoft Edge TTS.
type Provider struct {
	tracker  *tracker.Tracker
	language string
}

// NewProvider creates a new Edge TTS provider. t may be nil.
func NewProvider(t *tracker.Tracker) *Provider {
	return &Provider{tracker: t}
}

// SetLanguage sets the xml:lang of requests, e.g. "en-GB". Empty derives it
// from the voice name.
func (p *Provider) SetLanguage(lang string) {
	p.language = lang
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return Name }

// Synthesize generates an .mp3 file using Edge TTS.
func (p *Provider) Synthesize(ctx context.Context, text, voice string, rate float64, outputPath string) (string, error) {
	if voice == "" {
		return "", fmt.Errorf("voice ID is required")
	}

	fullPath := outputPath
	if !strings.HasSuffix(strings.ToLower(fullPath), ".mp3") {
		fullPath += ".mp3"
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	err = p.synthesize(ctx, file, text, voice, rate)
	tts.Log("EDGETTS", text, rate, err)
	if err != nil {
		file.Close()
		_ = os.Remove(fullPath)
		if p.tracker != nil {
			p.tracker.TrackFailure(Name)
		}
		return "", err
	}

	if p.tracker != nil {
		p.tracker.TrackSuccess(Name)
	}
	return fullPath, nil
}

func (p *Provider) synthesize(ctx context.Context, file io.Writer, text, voice string, rate float64) error {
	conn, err := p.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	if err := p.sendConfig(conn); err != nil {
		return err
	}

	requestID := strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := p.sendSSML(conn, voice, text, rate, requestID); err != nil {
		return err
	}

	return p.consumeResponses(ctx, conn, file)
}

// env holds the connection settings, all read from the environment (or .env).
type env struct {
	origin, userAgent, token, version, baseURL string
}

func loadEnv() (env, error) {
	e := env{
		origin:    os.Getenv("EDGE_TTS_ORIGIN"),
		userAgent: os.Getenv("EDGE_TTS_USER_AGENT"),
		token:     os.Getenv("EDGE_TTS_TRUSTED_CLIENT_TOKEN"),
		version:   os.Getenv("EDGE_TTS_SEC_MS_GEC_VERSION"),
		baseURL:   os.Getenv("EDGE_TTS_BASE_URL"),
	}
	var missing []string
	for name, v := range map[string]string{
		"EDGE_TTS_ORIGIN":               e.origin,
		"EDGE_TTS_USER_AGENT":           e.userAgent,
		"EDGE_TTS_TRUSTED_CLIENT_TOKEN": e.token,
		"EDGE_TTS_SEC_MS_GEC_VERSION":   e.version,
		"EDGE_TTS_BASE_URL":             e.baseURL,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return env{}, tts.NewFatalError(0, "missing environment: "+strings.Join(missing, ", "))
	}
	return e, nil
}

// Check reports whether the environment is configured for Edge TTS.
func (p *Provider) Check() error {
	_, err := loadEnv()
	return err
}

func (p *Provider) dial(ctx context.Context) (*websocket.Conn, error) {
	e, err := loadEnv()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Origin", e.origin)
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")
	header.Set("User-Agent", e.userAgent)
	header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	header.Set("Accept-Language", acceptLanguage(p.language))

	muid := strings.ReplaceAll(uuid.New().String(), "-", "")
	header.Set("Cookie", fmt.Sprintf("muid=%s", muid))

	url := fmt.Sprintf("%s?TrustedClientToken=%s&Sec-MS-GEC=%s&Sec-MS-GEC-Version=%s",
		e.baseURL, e.token, generateSecMSGec(e.token, time.Now()), e.version)

	var dialErr error
	for i := 0; i < 3; i++ {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
		if err == nil {
			return conn, nil
		}
		dialErr = err
		if resp != nil {
			slog.Warn("EdgeTTS: Handshake failed", "status", resp.Status)
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, tts.NewFatalError(resp.StatusCode, "edge-tts handshake rejected: "+resp.Status)
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("websocket dial failed after retries: %w", dialErr)
}

// generateSecMSGec derives the rolling access token: Windows file-time ticks
// rounded down to five minutes, concatenated with the client token and hashed.
func generateSecMSGec(trustedClientToken string, now time.Time) string {
	ticks := float64(now.Unix()) + 11644473600
	ticks -= float64(int64(ticks) % 300)
	ticks *= 1e7

	strToHash := fmt.Sprintf("%.0f%s", ticks, trustedClientToken)

	hash := sha256.Sum256([]byte(strToHash))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}

func (p *Provider) sendConfig(conn *websocket.Conn) error {
	configMsg := "Content-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n{\"context\":{\"synthesis\":{\"audio\":{\"metadataoptions\":{\"sentenceBoundaryEnabled\":\"false\",\"wordBoundaryEnabled\":\"false\"},\"outputFormat\":\"audio-24khz-48kbitrate-mono-mp3\"}}}}"
	if err := conn.WriteMessage(websocket.TextMessage, []byte(configMsg)); err != nil {
		return fmt.Errorf("failed to send speech.config: %w", err)
	}
	return nil
}

func (p *Provider) sendSSML(conn *websocket.Conn, voice, text string, rate float64, requestID string) error {
	ssml := buildSSML(p.language, voice, text, rate)

	ssmlMsg := fmt.Sprintf("X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n%s", requestID, ssml)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMsg)); err != nil {
		return fmt.Errorf("failed to send ssml: %w", err)
	}
	return nil
}

// prosodyRate renders a speed multiplier as an SSML relative rate, e.g. 1.2 -> "+20%".
func prosodyRate(rate float64) string {
	if rate <= 0 {
		rate = 1
	}
	return fmt.Sprintf("%+d%%", int(math.Round((rate-1)*100)))
}

func acceptLanguage(lang string) string {
	if lang == "" || strings.HasPrefix(lang, "en-") {
		return "en-US,en;q=0.9"
	}
	return lang + "," + strings.SplitN(lang, "-", 2)[0] + ";q=0.9,en;q=0.8"
}

// buildSSML renders one request. lang falls back to the voice's locale prefix.
func buildSSML(lang, voice, text string, rate float64) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	escapedText := replacer.Replace(text)
	if lang == "" {
		lang = "en-US"
		if parts := strings.SplitN(voice, "-", 3); len(parts) == 3 {
			lang = parts[0] + "-" + parts[1]
		}
	}
	return fmt.Sprintf("<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'><voice name='%s'><prosody rate='%s'>%s</prosody></voice></speak>",
		lang, voice, prosodyRate(rate), escapedText)
}

func (p *Provider) consumeResponses(ctx context.Context, conn *websocket.Conn, file io.Writer) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message failed: %w", err)
		}

		if msgType == websocket.TextMessage {
			if strings.Contains(string(data), "Path:turn.end") {
				return nil
			}
		} else if msgType == websocket.BinaryMessage {
			if err := p.handleBinaryMessage(data, file); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// handleBinaryMessage strips the 2-byte length-prefixed header and appends the audio payload.
func (p *Provider) handleBinaryMessage(data []byte, file io.Writer) error {
	if len(data) < 2 {
		return nil
	}
	headerLength := int(uint16(data[0])<<8 | uint16(data[1]))
	if len(data) < 2+headerLength {
		return nil
	}
	audioData := data[2+headerLength:]
	if len(audioData) > 0 {
		if _, err := file.Write(audioData); err != nil {
			return fmt.Errorf("write audio data failed: %w", err)
		}
	}
	return nil
}

// Voices returns neural voices suited to short, clear countdown calls.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	return []tts.Voice{
		{ID: "en-US-GuyNeural", Name: "Guy (US)", Language: "en-US", IsNeural: true},
		{ID: "en-US-AriaNeural", Name: "Aria (US)", Language: "en-US", IsNeural: true},
		{ID: "en-GB-RyanNeural", Name: "Ryan (UK)", Language: "en-GB", IsNeural: true},
		{ID: "en-GB-SoniaNeural", Name: "Sonia (UK)", Language: "en-GB", IsNeural: true},
		{ID: "en-AU-WilliamNeural", Name: "William (Australia)", Language: "en-AU", IsNeural: true},
		{ID: "en-NZ-MitchellNeural", Name: "Mitchell (New Zealand)", Language: "en-NZ", IsNeural: true},
	}, nil
}
