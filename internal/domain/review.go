package domain

import (
	"time"

	"github.com/Clark-Hu/storepeek/internal/locale"
)

// AppReview is a single user review.
type AppReview struct {
	ID          string    `json:"id"`
	CreatedDate time.Time `json:"createdDate"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	Rating      uint8     `json:"rating"`
	Device      string    `json:"device"`
	AppVersion  string    `json:"appVersion"`
}

// AppReviews is one page of reviews. The page markers are opaque and only
// threaded back into the next request.
type AppReviews struct {
	ID                    string        `json:"id"`
	StoreType             StoreType     `json:"storeType"`
	StoreCulture          locale.Locale `json:"storeCulture"`
	Sorting               ReviewSorting `json:"sorting"`
	StoreDataModifiedDate time.Time     `json:"storeDataModifiedDate"`
	PrevPageMarkerID      string        `json:"prevPageMarkerId,omitempty"`
	NextPageMarkerID      string        `json:"nextPageMarkerId,omitempty"`
	Reviews               []AppReview   `json:"reviews"`
}

// IsEmpty reports whether the page carries no reviews.
func (r AppReviews) IsEmpty() bool { return len(r.Reviews) == 0 }
