package models

// MovieSummary is the list-view shape shared by the catalog client and the
// watchlist. The JSON names are the ones persisted in the watchlist slot.
type MovieSummary struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	PosterPath   *string `json:"posterPath"`
	BackdropPath *string `json:"backdropPath"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"releaseDate"`
	VoteAverage  float64 `json:"voteAverage"`
	GenreIDs     []int   `json:"genreIds"`
}

type MovieDetail struct {
	MovieSummary
	Runtime    int     `json:"runtime"`
	Genres     []Genre `json:"genres"`
	TrailerKey *string `json:"trailerKey"`
	Tagline    string  `json:"tagline"`
	Budget     int64   `json:"budget"`
	Revenue    int64   `json:"revenue"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PagedResult mirrors the upstream paging envelope with canonical entities.
type PagedResult[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// HasNext reports whether the upstream advertises a page after this one.
func (p PagedResult[T]) HasNext() bool {
	return p.Page < p.TotalPages
}
