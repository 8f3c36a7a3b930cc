package api

import (
	"log/slog"
	"net/http"
	"time"

	"sailtimer/pkg/version"
)

// Handlers bundles the endpoint groups. Nil groups are not mounted.
type Handlers struct {
	Timer  *TimerHandler
	VMG    *VMGHandler
	Course *CourseHandler
	Stats  *StatsHandler
	Audio  *AudioHandler
	Stream *StreamHandler
}

// NewServer creates and configures the HTTP server.
// shutdown is called from POST /api/shutdown.
func NewServer(addr string, h Handlers, shutdown func()) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewMux(h, shutdown),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers every route on a fresh ServeMux.
func NewMux(h Handlers, shutdown func()) *http.ServeMux {
	mux := http.NewServeMux()

	// 1. Health and version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Race timer
	if h.Timer != nil {
		mux.HandleFunc("GET /api/timer", h.Timer.HandleState)
		mux.HandleFunc("POST /api/timer/{action}", h.Timer.HandleAction)
	}

	// 3. GPS and VMG
	if h.VMG != nil {
		mux.HandleFunc("GET /api/sail", h.VMG.HandleSail)
		mux.HandleFunc("GET /api/vmg", h.VMG.HandleVMG)
		mux.HandleFunc("POST /api/vmg/leeward", h.VMG.HandleLeeward)
		mux.HandleFunc("POST /api/vmg/windward", h.VMG.HandleWindward)
		mux.HandleFunc("POST /api/vmg/reset", h.VMG.HandleReset)
	}
	if h.Course != nil {
		mux.Handle("GET /api/course", h.Course)
	}

	// 4. Diagnostics
	if h.Stats != nil {
		mux.Handle("GET /api/stats", h.Stats)
	}
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.HandleFunc("GET /api/log/events", handleEventLog)

	// 5. Audio
	if h.Audio != nil {
		mux.HandleFunc("GET /api/audio/status", h.Audio.HandleStatus)
		mux.HandleFunc("POST /api/audio/volume", h.Audio.HandleVolume)
		mux.HandleFunc("POST /api/audio/stop", h.Audio.HandleStop)
	}

	// 6. Live stream
	if h.Stream != nil {
		mux.Handle("GET /api/ws", h.Stream)
	}

	// 7. Shutdown
	if shutdown != nil {
		mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
			slog.Info("Graceful shutdown initiated via API")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("Shutting down...")); err != nil {
				slog.Error("Failed to write shutdown response", "error", err)
			}
			// Let the response flush first.
			go func() {
				time.Sleep(100 * time.Millisecond)
				shutdown()
			}()
		})
	}

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}
