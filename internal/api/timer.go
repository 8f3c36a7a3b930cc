package api

import (
	"log/slog"
	"net/http"

	"sailtimer/pkg/timer"
)

// TimerHandler exposes the race timer.
type TimerHandler struct {
	engine  *timer.Engine
	actions map[string]func()
}

// NewTimerHandler creates a TimerHandler.
func NewTimerHandler(e *timer.Engine) *TimerHandler {
	return &TimerHandler{
		engine: e,
		actions: map[string]func(){
			"start":           e.Start,
			"stop":            e.Stop,
			"toggle":          e.Toggle,
			"reset":           e.Reset,
			"add-minute":      e.AddMinute,
			"subtract-minute": e.SubtractMinute,
			"sync":            e.Sync,
		},
	}
}

// HandleState handles GET /api/timer.
func (h *TimerHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// HandleAction handles POST /api/timer/{action} and returns the new state.
func (h *TimerHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")
	fn, ok := h.actions[action]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown timer action")
		return
	}

	fn()
	slog.Debug("Timer action via API", "action", action)
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}
