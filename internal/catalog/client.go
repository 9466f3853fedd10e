package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"horrorvault/internal/models"
	"horrorvault/internal/throttle"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"

	HorrorGenreID = 27

	maxRelated = 6

	discoverPath = "/discover/movie"
	searchPath   = "/search/movie"
	moviePath    = "/movie"
	genresPath   = "/genre/movie/list"
)

// Sort keys understood by the discover endpoint. Other values are passed
// through as-is.
const (
	SortPopularityDesc  = "popularity.desc"
	SortPopularityAsc   = "popularity.asc"
	SortRatingDesc      = "vote_average.desc"
	SortRatingAsc       = "vote_average.asc"
	SortReleaseDateDesc = "release_date.desc"
	SortReleaseDateAsc  = "release_date.asc"
	SortTitleAsc        = "title.asc"
	SortTitleDesc       = "title.desc"
)

const (
	RuntimeAll    = "all"
	RuntimeShort  = "short"
	RuntimeMedium = "medium"
	RuntimeLong   = "long"
)

type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type RatingRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DiscoverParams are the filters for Discover. Zero values mean "no filter".
type DiscoverParams struct {
	Page     int          `json:"page"`
	GenreIDs []int        `json:"genre_ids,omitempty"`
	Years    *YearRange   `json:"years,omitempty"`
	Ratings  *RatingRange `json:"ratings,omitempty"`
	Runtime  string       `json:"runtime,omitempty"`
	SortBy   string       `json:"sort_by,omitempty"`
}

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RateLimit  int
	RateWindow time.Duration
	UserAgent  string
	Throttler  Admitter
	Logger     *logrus.Logger
}

// Client is the typed view over the upstream catalog.
type Client struct {
	transport *Transport
	logger    *logrus.Logger
}

func NewClient(config *ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Throttler == nil {
		config.Throttler = throttle.New(config.RateLimit, config.RateWindow)
	}

	return &Client{
		transport: NewTransport(TransportConfig{
			BaseURL:   config.BaseURL,
			APIKey:    config.APIKey,
			Timeout:   config.Timeout,
			UserAgent: config.UserAgent,
			Throttler: config.Throttler,
			Logger:    config.Logger,
		}),
		logger: config.Logger,
	}
}

// NewClientWithTransport is used when the pipeline is assembled by hand.
func NewClientWithTransport(transport *Transport, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{transport: transport, logger: logger}
}

// DiscoverQuery builds the upstream query parameters for p.
func DiscoverQuery(p DiscoverParams) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(pageOrFirst(p.Page)))

	if len(p.GenreIDs) > 0 {
		params.Set("with_genres", joinIDs(p.GenreIDs))
	} else {
		params.Set("with_genres", strconv.Itoa(HorrorGenreID))
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = SortPopularityDesc
	}
	params.Set("sort_by", sortBy)

	if p.Years != nil {
		params.Set("primary_release_date.gte", fmt.Sprintf("%04d-01-01", p.Years.Min))
		params.Set("primary_release_date.lte", fmt.Sprintf("%04d-12-31", p.Years.Max))
	}

	if p.Ratings != nil {
		params.Set("vote_average.gte", strconv.FormatFloat(p.Ratings.Min, 'f', -1, 64))
		params.Set("vote_average.lte", strconv.FormatFloat(p.Ratings.Max, 'f', -1, 64))
	}

	switch p.Runtime {
	case RuntimeShort:
		params.Set("with_runtime.lte", "90")
	case RuntimeMedium:
		params.Set("with_runtime.gte", "90")
		params.Set("with_runtime.lte", "150")
	case RuntimeLong:
		params.Set("with_runtime.gte", "150")
	}

	return params
}

func (c *Client) Discover(ctx context.Context, p DiscoverParams) (models.PagedResult[models.MovieSummary], error) {
	c.logger.WithFields(logrus.Fields{
		"page":    pageOrFirst(p.Page),
		"genres":  p.GenreIDs,
		"runtime": p.Runtime,
		"sort_by": p.SortBy,
	}).Debug("Discovering movies...")

	return c.paged(ctx, "discover", discoverPath, DiscoverQuery(p))
}

// Search looks movies up by title and keeps only horror results. TotalResults
// is the filtered count of this page, not the upstream total.
func (c *Client) Search(ctx context.Context, query string, page int) (models.PagedResult[models.MovieSummary], error) {
	if strings.TrimSpace(query) == "" {
		return models.PagedResult[models.MovieSummary]{}, fmt.Errorf("search query cannot be empty")
	}

	c.logger.WithField("query", query).Debug("Searching movies...")

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(pageOrFirst(page)))
	params.Set("include_adult", "false")

	var wire models.TMDBPagedResponse
	if err := c.getJSON(ctx, "search", searchPath, params, &wire); err != nil {
		return models.PagedResult[models.MovieSummary]{}, err
	}

	horror := make([]models.TMDBMovie, 0, len(wire.Results))
	for _, m := range wire.Results {
		if slices.Contains(m.GenreIDs, HorrorGenreID) {
			horror = append(horror, m)
		}
	}

	results, err := NormalizeMovies(horror)
	if err != nil {
		return models.PagedResult[models.MovieSummary]{}, err
	}

	return models.PagedResult[models.MovieSummary]{
		Page:         wire.Page,
		Results:      results,
		TotalPages:   wire.TotalPages,
		TotalResults: len(results),
	}, nil
}

func (c *Client) Detail(ctx context.Context, id int) (models.MovieDetail, error) {
	params := url.Values{}
	params.Set("append_to_response", "videos")

	var wire models.TMDBMovieDetail
	if err := c.getJSON(ctx, "detail", fmt.Sprintf("%s/%d", moviePath, id), params, &wire); err != nil {
		return models.MovieDetail{}, err
	}
	return NormalizeDetail(wire)
}

func (c *Client) Recommendations(ctx context.Context, id, page int) ([]models.MovieSummary, error) {
	return c.related(ctx, "recommendations", id, page)
}

func (c *Client) Similar(ctx context.Context, id, page int) ([]models.MovieSummary, error) {
	return c.related(ctx, "similar", id, page)
}

func (c *Client) Genres(ctx context.Context) ([]models.Genre, error) {
	var wire models.TMDBGenreResponse
	if err := c.getJSON(ctx, "genres", genresPath, nil, &wire); err != nil {
		return nil, err
	}
	if wire.Genres == nil {
		return []models.Genre{}, nil
	}
	return wire.Genres, nil
}

func (c *Client) related(ctx context.Context, kind string, id, page int) ([]models.MovieSummary, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(pageOrFirst(page)))

	result, err := c.paged(ctx, kind, fmt.Sprintf("%s/%d/%s", moviePath, id, kind), params)
	if err != nil {
		return nil, err
	}
	if len(result.Results) > maxRelated {
		return result.Results[:maxRelated], nil
	}
	return result.Results, nil
}

func (c *Client) paged(ctx context.Context, op, path string, params url.Values) (models.PagedResult[models.MovieSummary], error) {
	var wire models.TMDBPagedResponse
	if err := c.getJSON(ctx, op, path, params, &wire); err != nil {
		return models.PagedResult[models.MovieSummary]{}, err
	}

	results, err := NormalizeMovies(wire.Results)
	if err != nil {
		return models.PagedResult[models.MovieSummary]{}, err
	}

	return models.PagedResult[models.MovieSummary]{
		Page:         wire.Page,
		Results:      results,
		TotalPages:   wire.TotalPages,
		TotalResults: wire.TotalResults,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, target any) error {
	body, err := c.transport.Get(ctx, op, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return validationError(op, "malformed payload", err)
	}
	return nil
}

func pageOrFirst(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func joinIDs(ids []int) string {
	seen := make(map[int]struct{}, len(ids))
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}
