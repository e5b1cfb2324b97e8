package domain

import (
	"strings"

	"github.com/Clark-Hu/storepeek/internal/locale"
)

// AppImage references a store image by urn.
type AppImage struct {
	Urn      string `json:"urn"`
	Rotation int16  `json:"rotation"`
}

// AppMetadataImages holds the logo and the screenshots in feed order.
type AppMetadataImages struct {
	Logo        AppImage   `json:"logo"`
	Screenshots []AppImage `json:"screenshots"`
}

// AppPublisher describes the publisher of an app. ID is always derived from Urn.
type AppPublisher struct {
	ID   string `json:"id"`
	Urn  string `json:"urn"`
	Name string `json:"name"`
}

// NewAppPublisher builds a publisher whose ID is the last urn segment.
func NewAppPublisher(urn, name string) AppPublisher {
	return AppPublisher{ID: LastURNSegment(urn), Urn: urn, Name: name}
}

// AppMetadata is the catalog entry of an app for one store culture. Search
// and spotlight results only populate identity, name, rating and logo.
type AppMetadata struct {
	ID               string            `json:"id"`
	Urn              string            `json:"urn"`
	Name             string            `json:"name"`
	StoreType        StoreType         `json:"storeType"`
	StoreCulture     locale.Locale     `json:"storeCulture"`
	Publisher        AppPublisher      `json:"publisher"`
	Rating           AppRating         `json:"rating"`
	Images           AppMetadataImages `json:"images"`
	SortTitle        string            `json:"sortTitle,omitempty"`
	Description      string            `json:"description,omitempty"`
	ShortDescription string            `json:"shortDescription,omitempty"`
	ReleaseDate      string            `json:"releaseDate,omitempty"`
	Version          string            `json:"version,omitempty"`
	Categories       []string          `json:"categories,omitempty"`
}

// LastURNSegment returns the substring after the last ':' of urn.
func LastURNSegment(urn string) string {
	if i := strings.LastIndexByte(urn, ':'); i >= 0 {
		return urn[i+1:]
	}
	return urn
}
