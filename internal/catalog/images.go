package catalog

import "strings"

const DefaultImageBaseURL = "https://image.tmdb.org/t/p"

type ImageSize string

const (
	PosterSmall   ImageSize = "poster_small"
	PosterMedium  ImageSize = "poster_medium"
	PosterLarge   ImageSize = "poster_large"
	BackdropSmall ImageSize = "backdrop_small"
	BackdropLarge ImageSize = "backdrop_large"
	Original      ImageSize = "original"
)

var imageSizeTokens = map[ImageSize]string{
	PosterSmall:   "w342",
	PosterMedium:  "w500",
	PosterLarge:   "w780",
	BackdropSmall: "w780",
	BackdropLarge: "w1280",
	Original:      "original",
}

// ParseImageSize resolves a size bucket name.
func ParseImageSize(name string) (ImageSize, bool) {
	size := ImageSize(strings.ToLower(name))
	_, ok := imageSizeTokens[size]
	return size, ok
}

// ImageURL builds the full URL for an opaque image path. A nil or empty path
// yields nil. Unknown sizes fall back to the medium poster bucket.
func ImageURL(baseURL string, path *string, size ImageSize) *string {
	if path == nil || *path == "" {
		return nil
	}
	token, ok := imageSizeTokens[size]
	if !ok {
		token = imageSizeTokens[PosterMedium]
	}
	if baseURL == "" {
		baseURL = DefaultImageBaseURL
	}
	u := strings.TrimRight(baseURL, "/") + "/" + token + *path
	return &u
}
