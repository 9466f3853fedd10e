package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"horrorvault/internal/catalog"
	"horrorvault/internal/models"
)

type movieListResponse struct {
	Page         int                   `json:"page"`
	Results      []models.MovieSummary `json:"results"`
	TotalPages   int                   `json:"total_pages,omitempty"`
	TotalResults int                   `json:"total_results"`
	HasMore      bool                  `json:"has_more"`
}

type imageURLResponse struct {
	URL *string `json:"url"`
}

func (h *Handler) handleGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.movies.Genres(r.Context())
	if err != nil {
		respondServiceError(w, h.log(r), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"genres": genres})
}

// handleListMovies serves one page, or with ?through=N the accumulated,
// de-duplicated pages 1..N.
func (h *Handler) handleListMovies(w http.ResponseWriter, r *http.Request) {
	params, err := parseMovieListParams(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if issues := validateStruct(params); issues != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "Invalid query parameters",
			Details: issues,
		})
		return
	}

	query, err := params.movieQuery(h.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if params.Through > 0 {
		pager := h.movies.Movies(query)
		if err := pager.LoadThrough(r.Context(), params.Through); err != nil {
			respondServiceError(w, h.log(r), err)
			return
		}
		respondJSON(w, http.StatusOK, movieListResponse{
			Page:         pager.Pages(),
			Results:      pager.Items(),
			TotalResults: pager.Total(),
			HasMore:      pager.HasMore(),
		})
		return
	}

	result, err := h.movies.MoviesPage(r.Context(), query, params.Page)
	if err != nil {
		respondServiceError(w, h.log(r), err)
		return
	}
	respondJSON(w, http.StatusOK, movieListResponse{
		Page:         result.Page,
		Results:      result.Results,
		TotalPages:   result.TotalPages,
		TotalResults: result.TotalResults,
		HasMore:      result.HasNext(),
	})
}

func (h *Handler) handleMovieDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(w, r)
	if !ok {
		return
	}

	detail, err := h.movies.Detail(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log(r), err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(w, r)
	if !ok {
		return
	}

	movies, err := h.movies.Recommendations(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log(r), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": movies})
}

func (h *Handler) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(w, r)
	if !ok {
		return
	}

	movies, err := h.movies.Similar(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log(r), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": movies})
}

func (h *Handler) handleImageURL(w http.ResponseWriter, r *http.Request) {
	size, ok := catalog.ParseImageSize(chi.URLParam(r, "size"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "unknown image size")
		return
	}

	path := strings.TrimSpace(r.URL.Query().Get("path"))
	respondJSON(w, http.StatusOK, imageURLResponse{URL: catalog.ImageURL(h.imageBaseURL, &path, size)})
}

func movieIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "bad_request", "movie id must be a positive integer")
		return 0, false
	}
	return id, true
}
