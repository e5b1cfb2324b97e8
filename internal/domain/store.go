// Package domain holds the value records returned by the catalog client.
package domain

import "fmt"

// StoreType identifies the store an app is published in.
type StoreType string

const (
	StoreWindowsPhone8  StoreType = "WindowsPhone8"
	StoreWindowsPhone81 StoreType = "WindowsPhone81"
)

// ParseStoreType accepts the names above; an empty string selects WindowsPhone8.
func ParseStoreType(s string) (StoreType, error) {
	switch StoreType(s) {
	case "", StoreWindowsPhone8:
		return StoreWindowsPhone8, nil
	case StoreWindowsPhone81:
		return StoreWindowsPhone81, nil
	}
	return "", fmt.Errorf("unknown store type %q", s)
}

// SpotlightType selects the spotlight hub.
type SpotlightType string

const (
	SpotlightApps  SpotlightType = "apps"
	SpotlightGames SpotlightType = "games"
)

// Valid reports whether t is a hub the remote service knows.
func (t SpotlightType) Valid() bool {
	return t == SpotlightApps || t == SpotlightGames
}

// ReviewSorting is sent verbatim as the orderBy parameter.
type ReviewSorting string

const (
	SortLatest       ReviewSorting = "Latest"
	SortMostHelpful  ReviewSorting = "MostHelpful"
	SortHighestRated ReviewSorting = "HighestRated"
	SortLowestRated  ReviewSorting = "LowestRated"
)

// Valid reports whether s is a known sort order.
func (s ReviewSorting) Valid() bool {
	switch s {
	case SortLatest, SortMostHelpful, SortHighestRated, SortLowestRated:
		return true
	}
	return false
}

// ImageType selects a server-side crop. ImageNone requests the original image.
type ImageType string

const (
	ImageNone            ImageType = ""
	ImageIconSmall       ImageType = "ws_icon_small"
	ImageIconMedium      ImageType = "ws_icon_medium"
	ImageIconLarge       ImageType = "ws_icon_large"
	ImageScreenshotSmall ImageType = "ws_screenshot_small"
	ImageScreenshotLarge ImageType = "ws_screenshot_large"
)

// Valid reports whether t is a known crop.
func (t ImageType) Valid() bool {
	switch t {
	case ImageNone, ImageIconSmall, ImageIconMedium, ImageIconLarge, ImageScreenshotSmall, ImageScreenshotLarge:
		return true
	}
	return false
}
