package server

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/cinematch/cinematch/pkg/errors"
	"github.com/cinematch/cinematch/pkg/interfaces"
)

// errorResponse is the JSON body returned for every failed request.
type errorResponse struct {
	Error           string   `json:"error"`
	Candidates      []string `json:"candidates,omitempty"`
	AvailableSpaces []string `json:"available_spaces,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", interfaces.Error(err))
	}
}

// writeError maps application errors to HTTP status codes. Ambiguous
// title resolutions carry their candidate list; unavailable feature
// spaces carry the spaces that do exist.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}

	var status int

	switch {
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsAmbiguousTitle(err):
		status = http.StatusNotFound
		resp.Candidates = errors.Candidates(err)
	case errors.IsBadRequest(err):
		status = http.StatusBadRequest
	case errors.IsUnavailableFeature(err):
		status = http.StatusBadRequest
		resp.AvailableSpaces = errors.AvailableSpaces(err)
	case errors.IsConflict(err):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError

		s.logger.Error("Request failed", interfaces.Error(err))
		resp.Error = "internal error"
	}

	s.writeJSON(w, status, resp)
}
