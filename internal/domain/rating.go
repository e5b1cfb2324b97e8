package domain

import "github.com/Clark-Hu/storepeek/internal/locale"

// AppRating is the aggregate user rating of an app in one culture.
// AverageRating is already expressed on the configured display scale.
type AppRating struct {
	AverageRating      float32       `json:"averageRating"`
	RatingCount        int           `json:"ratingCount"`
	Culture            locale.Locale `json:"culture"`
	RatingNotAvailable bool          `json:"ratingNotAvailable"`
}

// UnavailableRating is the placeholder returned when a rating lookup failed.
func UnavailableRating(culture locale.Locale) AppRating {
	return AppRating{Culture: culture, RatingNotAvailable: true}
}
