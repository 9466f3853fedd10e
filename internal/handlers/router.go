package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"horrorvault/internal/catalog"
	"horrorvault/internal/services"
	"horrorvault/internal/watchlist"
)

const requestTimeout = 60 * time.Second

// Handler serves the JSON API over the movie service and the watchlist.
type Handler struct {
	movies       *services.MovieService
	watchlist    *watchlist.Store
	imageBaseURL string
	limiter      *RateLimiter
	logger       *logrus.Logger
	now          func() time.Time
}

type Config struct {
	Movies       *services.MovieService
	Watchlist    *watchlist.Store
	ImageBaseURL string
	Limiter      *RateLimiter
	Logger       *logrus.Logger
}

func New(config Config) *Handler {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.ImageBaseURL == "" {
		config.ImageBaseURL = catalog.DefaultImageBaseURL
	}
	return &Handler{
		movies:       config.Movies,
		watchlist:    config.Watchlist,
		imageBaseURL: config.ImageBaseURL,
		limiter:      config.Limiter,
		logger:       config.Logger,
		now:          time.Now,
	}
}

// Router builds the chi router with the base middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/genres", h.handleGenres)
		r.Get("/images/{size}", h.handleImageURL)

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", h.handleListMovies)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleMovieDetail)
				r.Get("/recommendations", h.handleRecommendations)
				r.Get("/similar", h.handleSimilar)
			})
		})

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", h.handleListWatchlist)
			r.Post("/", h.handleAddToWatchlist)
			r.Delete("/", h.handleClearWatchlist)
			r.Get("/{id}", h.handleGetWatchlistEntry)
			r.Delete("/{id}", h.handleRemoveFromWatchlist)
		})
	})

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"elapsed":    time.Since(started),
			"remote":     r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (h *Handler) log(r *http.Request) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"path":       r.URL.Path,
	})
}
