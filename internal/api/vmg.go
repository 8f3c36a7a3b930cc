package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"sailtimer/pkg/vmg"
)

// VMGHandler exposes sail data, marks and VMG.
type VMGHandler struct {
	calc *vmg.Calculator
}

// NewVMGHandler creates a VMGHandler.
func NewVMGHandler(c *vmg.Calculator) *VMGHandler {
	return &VMGHandler{calc: c}
}

// VMGResponse is the body of GET /api/vmg.
type VMGResponse struct {
	Available bool        `json:"available"`
	Result    *vmg.Result `json:"result"`
	Marks     vmg.Marks   `json:"marks"`
}

// WindwardRequest carries the raw user input for the windward mark.
type WindwardRequest struct {
	DistanceNm string `json:"distance_nm"`
	Heading    string `json:"heading"`
}

// HandleSail handles GET /api/sail.
func (h *VMGHandler) HandleSail(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.calc.SailData())
}

// HandleVMG handles GET /api/vmg.
func (h *VMGHandler) HandleVMG(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.response())
}

// HandleLeeward handles POST /api/vmg/leeward.
func (h *VMGHandler) HandleLeeward(w http.ResponseWriter, r *http.Request) {
	wp, err := h.calc.SetLeewardMark()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wp)
}

// HandleWindward handles POST /api/vmg/windward.
func (h *VMGHandler) HandleWindward(w http.ResponseWriter, r *http.Request) {
	var req WindwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	wp, err := h.calc.SetWindwardMarkInput(req.DistanceNm, req.Heading)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wp)
}

// HandleReset handles POST /api/vmg/reset.
func (h *VMGHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.calc.ResetMarks()
	writeJSON(w, http.StatusOK, h.response())
}

func (h *VMGHandler) response() VMGResponse {
	resp := VMGResponse{Marks: h.calc.Marks()}
	if res, ok := h.calc.Result(); ok {
		resp.Available = true
		resp.Result = &res
	}
	return resp
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, vmg.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, vmg.ErrNoFix), errors.Is(err, vmg.ErrNoLeewardMark):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
