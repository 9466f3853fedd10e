package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"horrorvault/internal/catalog"
	"horrorvault/internal/services"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details []validationIssue `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, kind, message string) {
	respondJSON(w, status, errorResponse{Error: kind, Message: message})
}

// respondServiceError maps a catalog or service failure onto a status code.
// The message is always the user-facing one for the error kind.
func respondServiceError(w http.ResponseWriter, log *logrus.Entry, err error) {
	if errors.Is(err, services.ErrInvalidMovieID) {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
	} else {
		log.WithError(err).Warn("Request failed")
	}
	respondError(w, status, catalog.Kind(err), catalog.UserMessage(err))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, catalog.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, catalog.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, catalog.ErrAuth),
		errors.Is(err, catalog.ErrNetwork),
		errors.Is(err, catalog.ErrValidation),
		errors.Is(err, catalog.ErrUnknownAPI):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
