package catalog

import (
	"horrorvault/internal/models"
)

const (
	trailerSite = "YouTube"
	trailerType = "Trailer"
)

// NormalizeMovie maps a wire movie record to a MovieSummary.
func NormalizeMovie(wire models.TMDBMovie) (models.MovieSummary, error) {
	if wire.ID == nil {
		return models.MovieSummary{}, validationError("normalize movie", "missing id", nil)
	}
	if wire.Title == nil {
		return models.MovieSummary{}, validationError("normalize movie", "missing title", nil)
	}

	genreIDs := wire.GenreIDs
	if genreIDs == nil {
		genreIDs = []int{}
	}

	return models.MovieSummary{
		ID:           *wire.ID,
		Title:        *wire.Title,
		PosterPath:   wire.PosterPath,
		BackdropPath: wire.BackdropPath,
		Overview:     wire.Overview,
		ReleaseDate:  wire.ReleaseDate,
		VoteAverage:  wire.VoteAverage,
		GenreIDs:     genreIDs,
	}, nil
}

func NormalizeMovies(wire []models.TMDBMovie) ([]models.MovieSummary, error) {
	movies := make([]models.MovieSummary, 0, len(wire))
	for _, w := range wire {
		m, err := NormalizeMovie(w)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, nil
}

// NormalizeDetail maps a wire detail record (fetched with videos appended) to
// a MovieDetail.
func NormalizeDetail(wire models.TMDBMovieDetail) (models.MovieDetail, error) {
	if wire.ID == nil {
		return models.MovieDetail{}, validationError("normalize detail", "missing id", nil)
	}
	if wire.Title == nil {
		return models.MovieDetail{}, validationError("normalize detail", "missing title", nil)
	}
	if wire.Genres == nil {
		return models.MovieDetail{}, validationError("normalize detail", "missing genres", nil)
	}

	genreIDs := make([]int, len(wire.Genres))
	for i, g := range wire.Genres {
		genreIDs[i] = g.ID
	}

	return models.MovieDetail{
		MovieSummary: models.MovieSummary{
			ID:           *wire.ID,
			Title:        *wire.Title,
			PosterPath:   wire.PosterPath,
			BackdropPath: wire.BackdropPath,
			Overview:     wire.Overview,
			ReleaseDate:  wire.ReleaseDate,
			VoteAverage:  wire.VoteAverage,
			GenreIDs:     genreIDs,
		},
		Runtime:    wire.Runtime,
		Genres:     wire.Genres,
		TrailerKey: trailerKey(wire.Videos),
		Tagline:    wire.Tagline,
		Budget:     wire.Budget,
		Revenue:    wire.Revenue,
	}, nil
}

// trailerKey returns the key of the first YouTube trailer, or nil when that
// trailer has no key.
func trailerKey(videos *models.TMDBVideos) *string {
	if videos == nil {
		return nil
	}
	for _, v := range videos.Results {
		if v.Site != trailerSite || v.Type != trailerType {
			continue
		}
		if v.Key == "" {
			return nil
		}
		key := v.Key
		return &key
	}
	return nil
}
