package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxCountdown is the longest countdown the timer supports.
const MaxCountdown = 15 * time.Minute

// Config holds the application configuration.
type Config struct {
	Timer  TimerConfig  `yaml:"timer"`
	Speech SpeechConfig `yaml:"speech"`
	TTS    TTSConfig    `yaml:"tts"`
	Audio  AudioConfig  `yaml:"audio"`
	GPS    GPSConfig    `yaml:"gps"`
	VMG    VMGConfig    `yaml:"vmg"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

// TimerConfig holds the race countdown settings.
type TimerConfig struct {
	Start Duration `yaml:"start"` // countdown value after reset
	Max   Duration `yaml:"max"`   // upper bound for add-minute and sync
	Tick  Duration `yaml:"tick"`
}

// SpeechConfig controls the countdown announcements.
type SpeechConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Language      string  `yaml:"language"`
	NormalRate    float64 `yaml:"normal_rate"`
	FastRate      float64 `yaml:"fast_rate"`
	FastThreshold int     `yaml:"fast_threshold"` // seconds remaining at or below which FastRate is used
}

// EdgeTTSConfig holds settings for Edge TTS.
type EdgeTTSConfig struct {
	VoiceID string `yaml:"voice"` // e.g. "en-US-GuyNeural"
}

// SAPIConfig holds settings for Windows SAPI5.
type SAPIConfig struct {
	VoiceID string `yaml:"voice"` // empty selects the system default voice
}

// TTSConfig holds Text-To-Speech settings.
type TTSConfig struct {
	Engine   string        `yaml:"engine"`
	CacheDir string        `yaml:"cache_dir"`
	EdgeTTS  EdgeTTSConfig `yaml:"edge_tts"`
	SAPI     SAPIConfig    `yaml:"sapi"`
	Timeout  Duration      `yaml:"timeout"`
}

// AudioConfig holds playback settings shared by tones and speech.
type AudioConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Volume     float64 `yaml:"volume"`
	SampleRate int     `yaml:"sample_rate"`
	Tones      bool    `yaml:"tones"`
}

// GPSConfig selects and configures the position source.
type GPSConfig struct {
	Provider   string        `yaml:"provider"` // "serial", "mock", "none"
	StaleAfter Duration      `yaml:"stale_after"`
	Serial     SerialConfig  `yaml:"serial"`
	Mock       MockGPSConfig `yaml:"mock"`
}

// SerialConfig holds settings for an NMEA-0183 receiver on a serial port.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// MockGPSConfig holds settings for the simulated boat.
type MockGPSConfig struct {
	StartLat   float64  `yaml:"start_lat"`
	StartLon   float64  `yaml:"start_lon"`
	Heading    float64  `yaml:"heading"`
	SpeedKnots float64  `yaml:"speed_knots"`
	Interval   Duration `yaml:"interval"`
	Accuracy   float64  `yaml:"accuracy"`
}

// VMGConfig holds VMG fallbacks and windward mark defaults.
type VMGConfig struct {
	FallbackSpeedKnots float64  `yaml:"fallback_speed_knots"`
	FallbackHeading    float64  `yaml:"fallback_heading"`
	WindwardDistance   Distance `yaml:"windward_distance"`
	WindwardHeading    float64  `yaml:"windward_heading"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server LogSettings `yaml:"server"`
	Events LogSettings `yaml:"events"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timer: TimerConfig{
			Start: Duration(5 * time.Minute),
			Max:   Duration(15 * time.Minute),
			Tick:  Duration(time.Second),
		},
		Speech: SpeechConfig{
			Enabled:       true,
			Language:      "en-US",
			NormalRate:    0.8,
			FastRate:      1.2,
			FastThreshold: 15,
		},
		TTS: TTSConfig{
			Engine:   "windows-sapi",
			CacheDir: "./data/speech",
			EdgeTTS: EdgeTTSConfig{
				VoiceID: "en-US-GuyNeural",
			},
			Timeout: Duration(5 * time.Second),
		},
		Audio: AudioConfig{
			Enabled:    true,
			Volume:     1.0,
			SampleRate: 48000,
			Tones:      true,
		},
		GPS: GPSConfig{
			Provider:   "mock",
			StaleAfter: Duration(10 * time.Second),
			Serial: SerialConfig{
				Port:     "/dev/ttyUSB0",
				BaudRate: 4800,
			},
			Mock: MockGPSConfig{
				StartLat:   50.8965,
				StartLon:   -1.3065,
				Heading:    45.0,
				SpeedKnots: 6.0,
				Interval:   Duration(time.Second),
				Accuracy:   5.0,
			},
		},
		VMG: VMGConfig{
			FallbackSpeedKnots: 5.0,
			FallbackHeading:    45.0,
			WindwardDistance:   Distance(1852), // 1nm
			WindwardHeading:    0,
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:       "./logs/server.log",
				Level:      "INFO",
				MaxSizeMB:  10,
				MaxBackups: 3,
			},
			Events: LogSettings{
				Path:       "./logs/races.log",
				Level:      "INFO",
				MaxSizeMB:  5,
				MaxBackups: 5,
			},
		},
		Server: ServerConfig{
			Enabled: true,
			Address: "localhost:1921",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// An existing file is merged over the defaults but never written back.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applyEnv(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides defaults and file values with any set environment
// variables. Values found here are never saved.
func applyEnv(cfg *Config) {
	if v := os.Getenv("EDGE_TTS_VOICE"); v != "" {
		cfg.TTS.EdgeTTS.VoiceID = v
	}
	if port := os.Getenv("SAILTIMER_GPS_PORT"); port != "" {
		cfg.GPS.Serial.Port = port
	}
}

// Validate checks values that would make the timer misbehave.
func (c *Config) Validate() error {
	if !isValidLocale(c.Speech.Language) {
		return fmt.Errorf("invalid speech language '%s': must be 'xx-YY' (e.g. 'en-US', 'de-DE')", c.Speech.Language)
	}
	start := time.Duration(c.Timer.Start)
	maxDur := time.Duration(c.Timer.Max)
	if start <= 0 || maxDur <= 0 {
		return fmt.Errorf("timer start and max must be positive")
	}
	if maxDur > MaxCountdown {
		return fmt.Errorf("timer max %v exceeds %v", maxDur, MaxCountdown)
	}
	if start > maxDur {
		return fmt.Errorf("timer start %v exceeds max %v", start, maxDur)
	}
	if start%time.Second != 0 || maxDur%time.Second != 0 {
		return fmt.Errorf("timer start and max must be whole seconds")
	}
	switch c.GPS.Provider {
	case "serial", "mock", "none":
	default:
		return fmt.Errorf("unknown gps provider '%s'", c.GPS.Provider)
	}
	return nil
}

func isValidLocale(s string) bool {
	matched, _ := regexp.MatchString(`^[a-z]{2}-[A-Z]{2}$`, s)
	return matched
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# sailtimer configuration
# ----------------------
# Supported Units:
#   Duration: ms, s, m, h
#   Distance: m (meters), km (kilometers), nm/nmi (nautical miles), cables, ft (feet)

`)
	data = append(header, data...)

	reEngine := regexp.MustCompile(`(?m)^(\s+)engine:`)
	data = reEngine.ReplaceAll(data, []byte("${1}# Options: windows-sapi, edge-tts, none\n${1}engine:"))

	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: serial, mock, none\n${1}provider:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
