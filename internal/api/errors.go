package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joestump/talent-portal/internal/pipeline"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error" example:"unauthorized"`
	Code  string `json:"code" example:"unauthorized"`
}

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// renderPipelineError reports a stopped pipeline in the API's error format.
func renderPipelineError(w http.ResponseWriter, _ *http.Request, status int, err error) {
	switch {
	case status == http.StatusForbidden || errors.Is(err, pipeline.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", "forbidden")
	case status == http.StatusNotFound:
		writeError(w, http.StatusNotFound, "not found", "not_found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error", "internal")
	}
}
