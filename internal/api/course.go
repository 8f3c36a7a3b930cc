package api

import (
	"net/http"

	"sailtimer/pkg/vmg"
)

// CourseHandler serves the marks and boat position as GeoJSON.
type CourseHandler struct {
	calc *vmg.Calculator
}

// NewCourseHandler creates a CourseHandler.
func NewCourseHandler(c *vmg.Calculator) *CourseHandler {
	return &CourseHandler{calc: c}
}

func (h *CourseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, err := h.calc.Course().MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode course")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}
