package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"sailtimer/pkg/audio"
	"sailtimer/pkg/voice"
)

// AudioHandler handles audio control endpoints.
type AudioHandler struct {
	audio   audio.Service
	speaker *voice.Speaker
}

// NewAudioHandler creates a new AudioHandler. speaker may be nil.
func NewAudioHandler(audioMgr audio.Service, speaker *voice.Speaker) *AudioHandler {
	return &AudioHandler{
		audio:   audioMgr,
		speaker: speaker,
	}
}

// AudioVolumeRequest represents a volume change request.
type AudioVolumeRequest struct {
	Volume float64 `json:"volume"`
}

// AudioStatusResponse represents the audio status.
type AudioStatusResponse struct {
	IsPlaying bool    `json:"is_playing"`
	Volume    float64 `json:"volume"`
	LastCue   string  `json:"last_cue"`
}

// HandleVolume handles POST /api/audio/volume
func (h *AudioHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req AudioVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.audio.SetVolume(req.Volume)
	slog.Debug("Audio volume", "volume", h.audio.Volume())
	writeJSON(w, http.StatusOK, h.status())
}

// HandleStop handles POST /api/audio/stop. It cuts off the current cue only.
func (h *AudioHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.audio.Stop()
	writeJSON(w, http.StatusOK, h.status())
}

// HandleStatus handles GET /api/audio/status
func (h *AudioHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

func (h *AudioHandler) status() AudioStatusResponse {
	resp := AudioStatusResponse{
		IsPlaying: h.audio.IsBusy(),
		Volume:    h.audio.Volume(),
	}
	if h.speaker != nil {
		resp.LastCue = h.speaker.Last()
	}
	return resp
}
