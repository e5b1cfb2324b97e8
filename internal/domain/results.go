package domain

import "github.com/Clark-Hu/storepeek/internal/locale"

// StoreSearchResults is the outcome of a catalog search.
type StoreSearchResults struct {
	StoreType    StoreType     `json:"storeType"`
	StoreCulture locale.Locale `json:"storeCulture"`
	Count        int           `json:"count"`
	Results      []AppMetadata `json:"results"`
}

// NewStoreSearchResults computes Count from results.
func NewStoreSearchResults(store StoreType, culture locale.Locale, results []AppMetadata) StoreSearchResults {
	return StoreSearchResults{
		StoreType:    store,
		StoreCulture: culture,
		Count:        len(results),
		Results:      results,
	}
}

// StoreSpotlightResults is the daily spotlight listing for a culture.
type StoreSpotlightResults struct {
	StoreType     StoreType     `json:"storeType"`
	StoreCulture  locale.Locale `json:"storeCulture"`
	SpotlightType SpotlightType `json:"spotlightType"`
	Count         int           `json:"count"`
	Results       []AppMetadata `json:"results"`
}

// NewStoreSpotlightResults computes Count from results.
func NewStoreSpotlightResults(store StoreType, culture locale.Locale, kind SpotlightType, results []AppMetadata) StoreSpotlightResults {
	return StoreSpotlightResults{
		StoreType:     store,
		StoreCulture:  culture,
		SpotlightType: kind,
		Count:         len(results),
		Results:       results,
	}
}
