package models

// Wire shapes returned by the TMDB v3 API. Pointer fields are the ones the
// normalizer needs to tell "absent" apart from a zero value.

type TMDBPagedResponse struct {
	Page         int         `json:"page"`
	Results      []TMDBMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

type TMDBMovie struct {
	ID           *int    `json:"id"`
	Title        *string `json:"title"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int   `json:"genre_ids"`
}

type TMDBMovieDetail struct {
	ID           *int        `json:"id"`
	Title        *string     `json:"title"`
	PosterPath   *string     `json:"poster_path"`
	BackdropPath *string     `json:"backdrop_path"`
	Overview     string      `json:"overview"`
	ReleaseDate  string      `json:"release_date"`
	VoteAverage  float64     `json:"vote_average"`
	Genres       []Genre     `json:"genres"`
	Runtime      int         `json:"runtime"`
	Tagline      string      `json:"tagline"`
	Budget       int64       `json:"budget"`
	Revenue      int64       `json:"revenue"`
	Videos       *TMDBVideos `json:"videos,omitempty"`
}

type TMDBVideos struct {
	Results []TMDBVideo `json:"results"`
}

type TMDBVideo struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
	Name string `json:"name"`
}

type TMDBGenreResponse struct {
	Genres []Genre `json:"genres"`
}
