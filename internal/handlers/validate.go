package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"horrorvault/internal/catalog"
	"horrorvault/internal/services"
)

const defaultYearMin = 1970

var validate = validator.New()

type validationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// movieListParams is the parsed form of GET /movies.
type movieListParams struct {
	Query     string   `validate:"max=100"`
	Genres    []int    `validate:"max=10,dive,gt=0"`
	YearMin   *int     `validate:"omitempty,gte=1874,lte=2100"`
	YearMax   *int     `validate:"omitempty,gte=1874,lte=2100"`
	RatingMin *float64 `validate:"omitempty,gte=0,lte=10"`
	RatingMax *float64 `validate:"omitempty,gte=0,lte=10"`
	Runtime   string   `validate:"omitempty,oneof=all short medium long"`
	Sort      string   `validate:"omitempty,oneof=popularity.desc popularity.asc vote_average.desc vote_average.asc release_date.desc release_date.asc title.asc title.desc"`
	Page      int      `validate:"gte=1,lte=500"`
	Through   int      `validate:"omitempty,gte=1,lte=20"`
}

type watchlistAddRequest struct {
	ID           int     `json:"id" validate:"gt=0"`
	Title        string  `json:"title" validate:"required,max=300"`
	PosterPath   *string `json:"posterPath"`
	BackdropPath *string `json:"backdropPath"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"releaseDate" validate:"omitempty,datetime=2006-01-02"`
	VoteAverage  float64 `json:"voteAverage" validate:"gte=0,lte=10"`
	GenreIDs     []int   `json:"genreIds" validate:"dive,gt=0"`
}

func parseMovieListParams(query url.Values) (movieListParams, error) {
	params := movieListParams{
		Query:   strings.TrimSpace(query.Get("query")),
		Runtime: strings.TrimSpace(query.Get("runtime")),
		Sort:    strings.TrimSpace(query.Get("sort")),
		Page:    1,
	}

	if raw := strings.TrimSpace(query.Get("genres")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return params, fmt.Errorf("invalid genres value")
			}
			params.Genres = append(params.Genres, id)
		}
	}

	var err error
	if params.YearMin, err = optionalInt(query, "year_min"); err != nil {
		return params, err
	}
	if params.YearMax, err = optionalInt(query, "year_max"); err != nil {
		return params, err
	}
	if params.RatingMin, err = optionalFloat(query, "rating_min"); err != nil {
		return params, err
	}
	if params.RatingMax, err = optionalFloat(query, "rating_max"); err != nil {
		return params, err
	}
	if page, err := optionalInt(query, "page"); err != nil {
		return params, err
	} else if page != nil {
		params.Page = *page
	}
	if through, err := optionalInt(query, "through"); err != nil {
		return params, err
	} else if through != nil {
		params.Through = *through
	}

	return params, nil
}

// movieQuery turns validated params into a service query. A half-open range
// is completed with the filter panel defaults.
func (p movieListParams) movieQuery(now time.Time) (services.MovieQuery, error) {
	q := services.MovieQuery{
		Search: p.Query,
		Filters: catalog.DiscoverParams{
			GenreIDs: p.Genres,
			Runtime:  p.Runtime,
			SortBy:   p.Sort,
		},
	}

	if p.YearMin != nil || p.YearMax != nil {
		years := &catalog.YearRange{Min: defaultYearMin, Max: now.Year()}
		if p.YearMin != nil {
			years.Min = *p.YearMin
		}
		if p.YearMax != nil {
			years.Max = *p.YearMax
		}
		if years.Min > years.Max {
			return q, errors.New("year_min must not be after year_max")
		}
		q.Filters.Years = years
	}

	if p.RatingMin != nil || p.RatingMax != nil {
		ratings := &catalog.RatingRange{Min: 0, Max: 10}
		if p.RatingMin != nil {
			ratings.Min = *p.RatingMin
		}
		if p.RatingMax != nil {
			ratings.Max = *p.RatingMax
		}
		if ratings.Min > ratings.Max {
			return q, errors.New("rating_min must not be above rating_max")
		}
		q.Filters.Ratings = ratings
	}

	return q, nil
}

func optionalInt(query url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value", name)
	}
	return &v, nil
}

func optionalFloat(query url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value", name)
	}
	return &v, nil
}

func validateStruct(s any) []validationIssue {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []validationIssue{{Field: "", Message: err.Error()}}
	}

	issues := make([]validationIssue, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "lte":
			message = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		case "max":
			message = fmt.Sprintf("%s is too long", field)
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		issues = append(issues, validationIssue{Field: field, Message: message})
	}
	return issues
}
