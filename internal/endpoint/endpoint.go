// Package endpoint builds the request URIs of the store catalog service.
//
// The query strings reproduce what the phone store client sends. The protocol
// version, device model, chunk sizes and SKU are part of that contract and are
// not configurable; only the hosts can be redirected.
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Clark-Hu/storepeek/internal/domain"
	"github.com/Clark-Hu/storepeek/internal/locale"
)

// ErrURIConstruction is returned when the inputs cannot form a valid URI.
var ErrURIConstruction = errors.New("endpoint: cannot build uri")

const (
	metadataPath  = "/v9/catalog/apps/%s?os=8.10.14219.0&cc=%s&lang=%s"
	reviewsPath   = "/v9/ratings/product/%s/reviews?os=8.10.14219.0&cc=%s&lang=%s&dm=RM-1045_1012&chunksize=20&skuId=c1424839-be1e-40eb-8bc3-b2730db30b62&orderBy=%s"
	searchPath    = "/v9/catalog/apps?os=8.10.14219.0&cc=%s&lang=%s&dm=Virtual&chunkSize=50&q=%s"
	spotlightPath = "/v9/catalog/hubs?os=8.10.14219.0&cc=%s&lang=%s&hw=520293381&dm=RM-1045_1012&oemId=NOKIA&moId=HUT-AT&hub=%s&cf=99-1"
	imagePath     = "/v8/images/%s"

	imageURNPrefix = "urn:uuid:"
)

// Endpoints holds the hosts the templates are resolved against.
type Endpoints struct {
	Catalog    string
	CatalogCDN string
	Images     string
}

// DefaultEndpoints points at the production marketplace hosts.
var DefaultEndpoints = Endpoints{
	Catalog:    "http://marketplaceedgeservice.windowsphone.com",
	CatalogCDN: "http://cdn.marketplaceedgeservice.windowsphone.com",
	Images:     "http://cdn.marketplaceimages.windowsphone.com",
}

// Builder composes absolute request URIs. It is safe for concurrent use.
type Builder struct {
	endpoints Endpoints
}

// NewBuilder validates the hosts and returns a Builder.
func NewBuilder(e Endpoints) (*Builder, error) {
	for name, host := range map[string]string{"catalog": e.Catalog, "catalog cdn": e.CatalogCDN, "images": e.Images} {
		u, err := url.Parse(host)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return nil, fmt.Errorf("%w: %s host %q is not an absolute url", ErrURIConstruction, name, host)
		}
	}
	e.Catalog = strings.TrimRight(e.Catalog, "/")
	e.CatalogCDN = strings.TrimRight(e.CatalogCDN, "/")
	e.Images = strings.TrimRight(e.Images, "/")
	return &Builder{endpoints: e}, nil
}

// MetadataURI addresses the full catalog entry of an app.
func (b *Builder) MetadataURI(appID string, culture locale.Locale) (string, error) {
	if strings.TrimSpace(appID) == "" {
		return "", fmt.Errorf("%w: empty app id", ErrURIConstruction)
	}
	tag, country, err := normalize(culture)
	if err != nil {
		return "", err
	}
	return absolute(b.endpoints.Catalog + fmt.Sprintf(metadataPath, url.PathEscape(appID), country, tag))
}

// ImageURI addresses an image by urn. The type parameter is only added for a
// non-empty crop.
func (b *Builder) ImageURI(urn string, imageType domain.ImageType) (string, error) {
	id := strings.TrimPrefix(strings.TrimSpace(urn), imageURNPrefix)
	if id == "" {
		return "", fmt.Errorf("%w: empty image urn", ErrURIConstruction)
	}
	raw := b.endpoints.Images + fmt.Sprintf(imagePath, url.PathEscape(id))
	if t := strings.TrimSpace(string(imageType)); t != "" {
		raw += "?imageType=" + url.QueryEscape(t)
	}
	return absolute(raw)
}

// ReviewsURI addresses one page of reviews. At most one marker is appended;
// prevMarker wins when both are set.
func (b *Builder) ReviewsURI(appID string, culture locale.Locale, sorting domain.ReviewSorting, prevMarker, nextMarker string) (string, error) {
	if strings.TrimSpace(appID) == "" {
		return "", fmt.Errorf("%w: empty app id", ErrURIConstruction)
	}
	if !sorting.Valid() {
		return "", fmt.Errorf("%w: unknown sort order %q", ErrURIConstruction, sorting)
	}
	tag, country, err := normalize(culture)
	if err != nil {
		return "", err
	}
	raw := b.endpoints.Catalog + fmt.Sprintf(reviewsPath, url.PathEscape(appID), country, tag, sorting)
	switch {
	case strings.TrimSpace(prevMarker) != "":
		raw += "&beforeMarker=" + url.QueryEscape(prevMarker)
	case strings.TrimSpace(nextMarker) != "":
		raw += "&afterMarker=" + url.QueryEscape(nextMarker)
	}
	return absolute(raw)
}

// SearchURI addresses a keyword search. The query is escaped before embedding.
func (b *Builder) SearchURI(query string, culture locale.Locale) (string, error) {
	tag, country, err := normalize(culture)
	if err != nil {
		return "", err
	}
	return absolute(b.endpoints.Catalog + fmt.Sprintf(searchPath, country, tag, url.QueryEscape(query)))
}

// SpotlightURI addresses the daily spotlight hub for apps or games.
func (b *Builder) SpotlightURI(culture locale.Locale, kind domain.SpotlightType) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown spotlight type %q", ErrURIConstruction, kind)
	}
	tag, country, err := normalize(culture)
	if err != nil {
		return "", err
	}
	return absolute(b.endpoints.CatalogCDN + fmt.Sprintf(spotlightPath, country, tag, kind))
}

func normalize(culture locale.Locale) (string, string, error) {
	tag, country, err := locale.Normalize(string(culture))
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrURIConstruction, err)
	}
	return tag, country, nil
}

func absolute(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURIConstruction, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%w: %q is not absolute", ErrURIConstruction, raw)
	}
	return raw, nil
}
