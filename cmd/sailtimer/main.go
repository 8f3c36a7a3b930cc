package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"sailtimer/internal/api"
	"sailtimer/internal/tui"
	"sailtimer/pkg/announcement"
	"sailtimer/pkg/audio"
	"sailtimer/pkg/config"
	"sailtimer/pkg/gps"
	"sailtimer/pkg/gps/mockgps"
	"sailtimer/pkg/gps/nmea"
	"sailtimer/pkg/logging"
	"sailtimer/pkg/probe"
	"sailtimer/pkg/timer"
	"sailtimer/pkg/tracker"
	"sailtimer/pkg/tts"
	"sailtimer/pkg/tts/edgetts"
	"sailtimer/pkg/tts/sapi"
	"sailtimer/pkg/version"
	"sailtimer/pkg/vmg"
	"sailtimer/pkg/voice"
)

type runOptions struct {
	ConfigPath string
	TUI        bool
	Trace      bool
	GPS        string // overrides gps.provider when set
	Addr       string // overrides server.address when set
}

func main() {
	opts := runOptions{}
	initConfig := pflag.Bool("init-config", false, "Write a default config file and exit")
	showVersion := pflag.BoolP("version", "v", false, "Print the version and exit")
	pflag.StringVarP(&opts.ConfigPath, "config", "c", "configs/sailtimer.yaml", "Path to the config file")
	pflag.BoolVar(&opts.TUI, "tui", false, "Run the terminal dashboard")
	pflag.BoolVar(&opts.Trace, "trace", false, "Log every tick and GPS sample (needs log level DEBUG)")
	pflag.StringVar(&opts.GPS, "gps", "", "GPS provider: serial, mock, none")
	pflag.StringVar(&opts.Addr, "addr", "", "HTTP listen address")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}

	if *initConfig {
		if err := config.GenerateDefault(opts.ConfigPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default config written to %s\n", opts.ConfigPath)
		return
	}

	// .env is optional; EDGE_TTS_VOICE and SAILTIMER_GPS_PORT set there override the config file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts runOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.GPS != "" {
		appCfg.GPS.Provider = opts.GPS
	}
	if opts.Addr != "" {
		appCfg.Server.Address = opts.Addr
	}

	// The dashboard owns the terminal; logs go to files only.
	var console io.Writer = os.Stdout
	if opts.TUI {
		console = io.Discard
	}
	cleanupLogs, err := logging.Init(&appCfg.Log, console)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()
	if opts.Trace {
		logging.SetTrace(true)
	}

	tts.SetLogPath(filepath.Join(filepath.Dir(appCfg.Log.Server.Path), "tts.log"))

	slog.Info("SailTimer Started", "version", version.Get().String())

	tr := tracker.New()
	audioMgr := audio.New(&appCfg.Audio)
	defer audioMgr.Shutdown()

	ttsProv, err := newTTSProvider(appCfg, tr)
	if err != nil {
		return err
	}

	results := probe.Run(ctx, startupProbes(appCfg, audioMgr, ttsProv))
	if err := probe.AnalyzeResults(results); err != nil {
		return err
	}
	if degraded := probe.Degraded(results); len(degraded) > 0 {
		slog.Warn("Starting with degraded outputs", "failed", degraded)
	}

	rates := announcement.RatePolicy{
		Normal:        appCfg.Speech.NormalRate,
		Fast:          appCfg.Speech.FastRate,
		FastThreshold: appCfg.Speech.FastThreshold,
	}

	speaker := voice.NewSpeaker(ttsProv, audioMgr, tr, voice.Options{
		Voice:    resolveVoice(ctx, appCfg, ttsProv),
		CacheDir: appCfg.TTS.CacheDir,
		Timeout:  time.Duration(appCfg.TTS.Timeout),
	})
	go speaker.Run(ctx)
	if appCfg.Speech.Enabled {
		go func() {
			if err := speaker.Prewarm(ctx, appCfg.Timer.Max.Seconds(), rates); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("Voice: Prewarm stopped, cues will be logged only", "error", err)
			}
		}()
	}

	sched := timer.NewTickerScheduler(ctx)
	engine := timer.NewEngine(timer.Options{
		Start:     appCfg.Timer.Start.Seconds(),
		Max:       appCfg.Timer.Max.Seconds(),
		Tick:      time.Duration(appCfg.Timer.Tick),
		Rates:     rates,
		Speaker:   timerSpeaker(appCfg, speaker),
		TonePlay:  audioMgr,
		Scheduler: sched,
	})
	defer func() {
		engine.Close()
		cancel()
		sched.Wait()
	}()

	calc := vmg.NewCalculator(vmg.Options{
		FallbackSpeedKnots: appCfg.VMG.FallbackSpeedKnots,
		FallbackHeading:    appCfg.VMG.FallbackHeading,
	})

	src, err := newGPSSource(&appCfg.GPS)
	if err != nil {
		return err
	}
	if src != nil {
		go vmg.Follow(ctx, src, calc, time.Duration(appCfg.GPS.StaleAfter))
	} else {
		slog.Info("GPS disabled, VMG uses manual marks only")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() {
		select {
		case quit <- syscall.SIGTERM:
		default:
		}
	}

	var srv *http.Server
	if appCfg.Server.Enabled {
		srv = api.NewServer(appCfg.Server.Address, api.Handlers{
			Timer:  api.NewTimerHandler(engine),
			VMG:    api.NewVMGHandler(calc),
			Course: api.NewCourseHandler(calc),
			Stats:  api.NewStatsHandler(tr),
			Audio:  api.NewAudioHandler(audioMgr, speaker),
			Stream: api.NewStreamHandler(engine, calc),
		}, shutdownFunc)
		srv.Handler = loggingMiddleware(srv.Handler)
	}

	if !opts.TUI {
		if srv == nil {
			return waitForQuit(ctx, quit)
		}
		return runServerLifecycle(ctx, srv, quit)
	}

	// The dashboard runs in the foreground; the server (if any) follows its lifetime.
	tuiCtx, stopTUI := context.WithCancel(ctx)
	defer stopTUI()
	serverDone := make(chan error, 1)
	if srv != nil {
		go func() {
			err := runServerLifecycle(tuiCtx, srv, quit)
			stopTUI()
			serverDone <- err
		}()
	} else {
		go func() {
			serverDone <- waitForQuit(tuiCtx, quit)
			stopTUI()
		}()
	}

	dash := tui.New(engine, calc, tui.Options{
		WindwardDistanceNm: appCfg.VMG.WindwardDistance.NauticalMiles(),
		WindwardHeading:    appCfg.VMG.WindwardHeading,
	})
	tuiErr := dash.Run(tuiCtx)
	stopTUI()
	if err := <-serverDone; err != nil {
		return err
	}
	return tuiErr
}

func newTTSProvider(cfg *config.Config, tr *tracker.Tracker) (tts.Provider, error) {
	switch cfg.TTS.Engine {
	case "windows-sapi":
		return sapi.NewProvider(), nil
	case "edge-tts":
		p := edgetts.NewProvider(tr)
		p.SetLanguage(cfg.Speech.Language)
		return p, nil
	case "none", "":
		slog.Info("TTS disabled, cues will be logged only")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown tts engine %q", cfg.TTS.Engine)
	}
}

func voiceID(cfg *config.Config) string {
	switch cfg.TTS.Engine {
	case "edge-tts":
		return cfg.TTS.EdgeTTS.VoiceID
	case "windows-sapi":
		return cfg.TTS.SAPI.VoiceID
	}
	return ""
}

// resolveVoice returns the configured voice, or else the engine's first voice
// for speech.language. Empty leaves the choice to the engine.
func resolveVoice(ctx context.Context, cfg *config.Config, prov tts.Provider) string {
	if id := voiceID(cfg); id != "" || prov == nil {
		return id
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	voices, err := prov.Voices(ctx)
	if err != nil {
		slog.Warn("Voice: Could not list voices, using engine default", "engine", prov.Name(), "error", err)
		return ""
	}
	id, ok := tts.PickVoice(voices, cfg.Speech.Language)
	if !ok {
		slog.Warn("Voice: No voice for language, using engine default", "language", cfg.Speech.Language)
		return ""
	}
	slog.Info("Voice: Selected by language", "voice", id, "language", cfg.Speech.Language)
	return id
}

// timerSpeaker returns nil when speech is off so the engine stays silent
// instead of logging every cue.
func timerSpeaker(cfg *config.Config, s *voice.Speaker) timer.Speaker {
	if !cfg.Speech.Enabled {
		return nil
	}
	return s
}

func newGPSSource(cfg *config.GPSConfig) (gps.Source, error) {
	switch cfg.Provider {
	case "serial":
		if cfg.Serial.Port == "" {
			return nil, errors.New("gps.serial.port is required for the serial provider")
		}
		return nmea.NewSource(cfg.Serial.Port, cfg.Serial.BaudRate), nil
	case "mock":
		return mockgps.NewSource(mockgps.Config{
			StartLat:   cfg.Mock.StartLat,
			StartLon:   cfg.Mock.StartLon,
			Heading:    cfg.Mock.Heading,
			SpeedKnots: cfg.Mock.SpeedKnots,
			Interval:   time.Duration(cfg.Mock.Interval),
			Accuracy:   cfg.Mock.Accuracy,
		}), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown gps provider %q", cfg.Provider)
	}
}

func startupProbes(cfg *config.Config, audioMgr *audio.Manager, ttsProv tts.Provider) []probe.Probe {
	audioCheck := probe.Skip()
	if cfg.Audio.Enabled {
		audioCheck = func(context.Context) error { return audioMgr.Check() }
	}
	probes := []probe.Probe{
		{Name: "Audio", Check: audioCheck},
	}

	if ttsProv != nil {
		probes = append(probes, probe.Probe{Name: "Cue Cache", Check: probe.Writable(cfg.TTS.CacheDir)})
	}
	if p, ok := ttsProv.(*edgetts.Provider); ok {
		probes = append(probes, probe.Probe{
			Name:  "EdgeTTS",
			Check: func(context.Context) error { return p.Check() },
		})
	}

	// A missing receiver is reported but the timer still runs.
	if cfg.GPS.Provider == "serial" {
		probes = append(probes, probe.Probe{Name: "GPS Port", Check: probe.SerialPort(cfg.GPS.Serial.Port)})
	}
	return probes
}

func waitForQuit(ctx context.Context, quit chan os.Signal) error {
	select {
	case <-quit:
		slog.Info("Shutting down...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	}
	return nil
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
