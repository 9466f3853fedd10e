package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"horrorvault/internal/cache"
	"horrorvault/internal/catalog"
	"horrorvault/internal/logger"
	"horrorvault/internal/models"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Discover(ctx context.Context, p catalog.DiscoverParams) (models.PagedResult[models.MovieSummary], error) {
	args := m.Called(ctx, p)
	return args.Get(0).(models.PagedResult[models.MovieSummary]), args.Error(1)
}

func (m *mockCatalog) Search(ctx context.Context, query string, page int) (models.PagedResult[models.MovieSummary], error) {
	args := m.Called(ctx, query, page)
	return args.Get(0).(models.PagedResult[models.MovieSummary]), args.Error(1)
}

func (m *mockCatalog) Detail(ctx context.Context, id int) (models.MovieDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.MovieDetail), args.Error(1)
}

func (m *mockCatalog) Recommendations(ctx context.Context, id, page int) ([]models.MovieSummary, error) {
	args := m.Called(ctx, id, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MovieSummary), args.Error(1)
}

func (m *mockCatalog) Similar(ctx context.Context, id, page int) ([]models.MovieSummary, error) {
	args := m.Called(ctx, id, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MovieSummary), args.Error(1)
}

func (m *mockCatalog) Genres(ctx context.Context) ([]models.Genre, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Genre), args.Error(1)
}

func newTestService(c Catalog) *MovieService {
	qc := cache.New(logger.Discard(),
		cache.WithRetryable(catalog.Retryable),
		cache.WithSleep(func(ctx context.Context, d time.Duration) error { return nil }),
	)
	return NewMovieService(c, qc, logger.Discard())
}

func page(n, total int, ids ...int) models.PagedResult[models.MovieSummary] {
	results := make([]models.MovieSummary, len(ids))
	for i, id := range ids {
		results[i] = models.MovieSummary{ID: id, GenreIDs: []int{27}}
	}
	return models.PagedResult[models.MovieSummary]{Page: n, Results: results, TotalPages: total, TotalResults: len(ids) * total}
}

func TestDetailRejectsNonPositiveID(t *testing.T) {
	m := &mockCatalog{}
	svc := newTestService(m)

	_, err := svc.Detail(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidMovieID)

	_, err = svc.Similar(context.Background(), -3)
	assert.ErrorIs(t, err, ErrInvalidMovieID)

	m.AssertNotCalled(t, "Detail", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Similar", mock.Anything, mock.Anything, mock.Anything)
}

func TestDetailIsCached(t *testing.T) {
	m := &mockCatalog{}
	detail := models.MovieDetail{MovieSummary: models.MovieSummary{ID: 694, Title: "The Shining"}}
	m.On("Detail", mock.Anything, 694).Return(detail, nil).Once()

	svc := newTestService(m)
	for i := 0; i < 3; i++ {
		got, err := svc.Detail(context.Background(), 694)
		require.NoError(t, err)
		assert.Equal(t, "The Shining", got.Title)
	}

	m.AssertExpectations(t)
}

func TestDetailNotFoundIsNotRetried(t *testing.T) {
	m := &mockCatalog{}
	notFound := &catalog.APIError{Kind: catalog.ErrNotFound, Op: "detail", Status: 404}
	m.On("Detail", mock.Anything, 5).Return(models.MovieDetail{}, notFound).Once()

	svc := newTestService(m)
	_, err := svc.Detail(context.Background(), 5)

	assert.ErrorIs(t, err, catalog.ErrNotFound)
	m.AssertNumberOfCalls(t, "Detail", 1)
}

func TestDetailRetriesNetworkFailures(t *testing.T) {
	m := &mockCatalog{}
	netErr := &catalog.APIError{Kind: catalog.ErrNetwork, Op: "detail"}
	m.On("Detail", mock.Anything, 5).Return(models.MovieDetail{}, netErr)

	svc := newTestService(m)
	_, err := svc.Detail(context.Background(), 5)

	assert.ErrorIs(t, err, catalog.ErrNetwork)
	m.AssertNumberOfCalls(t, "Detail", 3)
}

func TestDetailRetriesUnavailableUpstream(t *testing.T) {
	m := &mockCatalog{}
	unavailable := &catalog.APIError{Kind: catalog.ErrServiceUnavailable, Op: "detail", Status: 503}
	m.On("Detail", mock.Anything, 5).Return(models.MovieDetail{}, unavailable).Times(3)

	svc := newTestService(m)
	_, err := svc.Detail(context.Background(), 5)

	assert.ErrorIs(t, err, catalog.ErrServiceUnavailable)
	m.AssertNumberOfCalls(t, "Detail", 3)
	m.AssertExpectations(t)
}

func TestRelatedUsesFirstPage(t *testing.T) {
	m := &mockCatalog{}
	m.On("Recommendations", mock.Anything, 42, 1).Return([]models.MovieSummary{{ID: 1}}, nil).Once()
	m.On("Similar", mock.Anything, 42, 1).Return([]models.MovieSummary{{ID: 2}, {ID: 3}}, nil).Once()

	svc := newTestService(m)

	recs, err := svc.Recommendations(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	similar, err := svc.Similar(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, similar, 2)

	m.AssertExpectations(t)
}

func TestGenresAreCached(t *testing.T) {
	m := &mockCatalog{}
	m.On("Genres", mock.Anything).Return([]models.Genre{{ID: 27, Name: "Horror"}}, nil).Once()

	svc := newTestService(m)
	for i := 0; i < 2; i++ {
		genres, err := svc.Genres(context.Background())
		require.NoError(t, err)
		assert.Len(t, genres, 1)
	}
	m.AssertExpectations(t)
}

func TestMoviesPageChoosesSearchOrDiscover(t *testing.T) {
	m := &mockCatalog{}
	m.On("Search", mock.Anything, "scream", 1).Return(page(1, 1, 1), nil).Once()
	m.On("Discover", mock.Anything, catalog.DiscoverParams{Page: 1, Runtime: catalog.RuntimeShort}).
		Return(page(1, 2, 5, 6), nil).Once()

	svc := newTestService(m)

	got, err := svc.MoviesPage(context.Background(), MovieQuery{Search: "  scream "}, 0)
	require.NoError(t, err)
	assert.Len(t, got.Results, 1)

	got, err = svc.MoviesPage(context.Background(), MovieQuery{
		Search:  "ab",
		Filters: catalog.DiscoverParams{Runtime: catalog.RuntimeShort},
	}, 1)
	require.NoError(t, err)
	assert.Len(t, got.Results, 2)

	m.AssertExpectations(t)
}

func TestMoviesPageLogsListingMode(t *testing.T) {
	m := &mockCatalog{}
	m.On("Search", mock.Anything, "alien", 1).Return(page(1, 1, 1), nil).Once()
	m.On("Discover", mock.Anything, catalog.DiscoverParams{Page: 1}).Return(page(1, 1, 2), nil).Once()

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	svc := NewMovieService(m, cache.New(logger.Discard()), log)

	_, err := svc.MoviesPage(context.Background(), MovieQuery{Search: "alien"}, 1)
	require.NoError(t, err)
	_, err = svc.MoviesPage(context.Background(), MovieQuery{}, 1)
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Listing movies by title search", entries[0].Message)
	assert.Equal(t, "alien", entries[0].Data["query"])
	assert.Equal(t, "Listing movies by discover", entries[1].Message)
	m.AssertExpectations(t)
}

func TestMoviesPagerWalksAllPages(t *testing.T) {
	m := &mockCatalog{}
	m.On("Discover", mock.Anything, catalog.DiscoverParams{Page: 1}).Return(page(1, 2, 1, 2, 3), nil).Once()
	m.On("Discover", mock.Anything, catalog.DiscoverParams{Page: 2}).Return(page(2, 2, 3, 4), nil).Once()

	svc := newTestService(m)
	pager := svc.Movies(MovieQuery{})

	require.NoError(t, pager.LoadThrough(context.Background(), 5))

	ids := []int{}
	for _, movie := range pager.Items() {
		ids = append(ids, movie.ID)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, ids)
	assert.False(t, pager.HasMore())
	m.AssertExpectations(t)
}
