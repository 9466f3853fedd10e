package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"horrorvault/internal/cache"
	"horrorvault/internal/catalog"
	"horrorvault/internal/models"
)

// minSearchLength is the shortest trimmed query that switches from discover
// to title search.
const minSearchLength = 3

var ErrInvalidMovieID = errors.New("movie id must be positive")

// Catalog is the subset of *catalog.Client the service depends on.
type Catalog interface {
	Discover(ctx context.Context, p catalog.DiscoverParams) (models.PagedResult[models.MovieSummary], error)
	Search(ctx context.Context, query string, page int) (models.PagedResult[models.MovieSummary], error)
	Detail(ctx context.Context, id int) (models.MovieDetail, error)
	Recommendations(ctx context.Context, id, page int) ([]models.MovieSummary, error)
	Similar(ctx context.Context, id, page int) ([]models.MovieSummary, error)
	Genres(ctx context.Context) ([]models.Genre, error)
}

// MovieQuery describes one browsable list: either a title search or a
// filtered discover.
type MovieQuery struct {
	Search  string                 `json:"search,omitempty"`
	Filters catalog.DiscoverParams `json:"filters"`
}

// IsSearch reports whether the query runs as a title search.
func (q MovieQuery) IsSearch() bool {
	return len(strings.TrimSpace(q.Search)) >= minSearchLength
}

type MovieService struct {
	catalog Catalog
	cache   *cache.QueryCache
	logger  *logrus.Logger
}

func NewMovieService(c Catalog, qc *cache.QueryCache, logger *logrus.Logger) *MovieService {
	if logger == nil {
		logger = logrus.New()
	}
	return &MovieService{catalog: c, cache: qc, logger: logger}
}

func (s *MovieService) Genres(ctx context.Context) ([]models.Genre, error) {
	return cache.Fetch(ctx, s.cache, cache.Key("genres", nil), cache.GenresPolicy, s.catalog.Genres)
}

func (s *MovieService) Detail(ctx context.Context, id int) (models.MovieDetail, error) {
	if id <= 0 {
		return models.MovieDetail{}, ErrInvalidMovieID
	}

	key := cache.Key("detail", map[string]int{"id": id})
	return cache.Fetch(ctx, s.cache, key, cache.DetailPolicy, func(ctx context.Context) (models.MovieDetail, error) {
		return s.catalog.Detail(ctx, id)
	})
}

func (s *MovieService) Recommendations(ctx context.Context, id int) ([]models.MovieSummary, error) {
	if id <= 0 {
		return nil, ErrInvalidMovieID
	}

	key := cache.Key("recommendations", map[string]int{"id": id})
	return cache.Fetch(ctx, s.cache, key, cache.RelatedPolicy, func(ctx context.Context) ([]models.MovieSummary, error) {
		return s.catalog.Recommendations(ctx, id, 1)
	})
}

func (s *MovieService) Similar(ctx context.Context, id int) ([]models.MovieSummary, error) {
	if id <= 0 {
		return nil, ErrInvalidMovieID
	}

	key := cache.Key("similar", map[string]int{"id": id})
	return cache.Fetch(ctx, s.cache, key, cache.RelatedPolicy, func(ctx context.Context) ([]models.MovieSummary, error) {
		return s.catalog.Similar(ctx, id, 1)
	})
}

// MoviesPage loads one page of q. Each page is cached on its own.
func (s *MovieService) MoviesPage(ctx context.Context, q MovieQuery, page int) (models.PagedResult[models.MovieSummary], error) {
	if page < 1 {
		page = 1
	}

	if q.IsSearch() {
		term := strings.TrimSpace(q.Search)
		key := cache.Key("search", map[string]any{"query": term, "page": page})
		s.logger.WithFields(logrus.Fields{"query": term, "page": page}).Debug("Listing movies by title search")

		return cache.Fetch(ctx, s.cache, key, cache.ListPolicy, func(ctx context.Context) (models.PagedResult[models.MovieSummary], error) {
			return s.catalog.Search(ctx, term, page)
		})
	}

	params := q.Filters
	params.Page = page
	key := cache.Key("discover", params)
	s.logger.WithFields(logrus.Fields{"page": page, "sort_by": params.SortBy}).Debug("Listing movies by discover")

	return cache.Fetch(ctx, s.cache, key, cache.ListPolicy, func(ctx context.Context) (models.PagedResult[models.MovieSummary], error) {
		return s.catalog.Discover(ctx, params)
	})
}

// Movies returns a pager that walks q page by page.
func (s *MovieService) Movies(q MovieQuery) *cache.Pager[models.MovieSummary] {
	return cache.NewPager(func(ctx context.Context, page int) (models.PagedResult[models.MovieSummary], error) {
		return s.MoviesPage(ctx, q, page)
	}, func(m models.MovieSummary) int { return m.ID })
}
