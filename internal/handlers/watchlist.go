package handlers

import (
	"encoding/json"
	"net/http"

	"horrorvault/internal/models"
	"horrorvault/internal/watchlist"
)

const maxRequestBody = 64 << 10

type watchlistResponse struct {
	Items []models.MovieSummary `json:"items"`
	Count int                   `json:"count"`
	Max   int                   `json:"max"`
}

func (h *Handler) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	items := h.watchlist.Items()
	respondJSON(w, http.StatusOK, watchlistResponse{Items: items, Count: len(items), Max: watchlist.MaxEntries})
}

func (h *Handler) handleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req watchlistAddRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if issues := validateStruct(req); issues != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "Invalid watchlist entry",
			Details: issues,
		})
		return
	}

	movie := models.MovieSummary(req)

	if h.watchlist.Contains(movie.ID) {
		respondError(w, http.StatusConflict, "duplicate", "This movie is already in your watchlist.")
		return
	}
	if !h.watchlist.Add(r.Context(), movie) {
		if h.watchlist.Contains(movie.ID) {
			respondError(w, http.StatusConflict, "duplicate", "This movie is already in your watchlist.")
			return
		}
		respondError(w, http.StatusConflict, "watchlist_full", "Your watchlist is full. Remove a movie to add another.")
		return
	}

	stored, _ := h.watchlist.Get(movie.ID)
	respondJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleGetWatchlistEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(w, r)
	if !ok {
		return
	}

	movie, found := h.watchlist.Get(id)
	if !found {
		respondError(w, http.StatusNotFound, "not_found", "This movie is not in your watchlist.")
		return
	}
	respondJSON(w, http.StatusOK, movie)
}

func (h *Handler) handleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(w, r)
	if !ok {
		return
	}

	if !h.watchlist.Remove(r.Context(), id) {
		respondError(w, http.StatusNotFound, "not_found", "This movie is not in your watchlist.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearWatchlist(w http.ResponseWriter, r *http.Request) {
	h.watchlist.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
