// Package catalog is the client of the store catalog service. It validates
// parameters, builds request URIs, fetches feeds through a transport.Fetcher
// and maps them onto domain records.
package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/storepeek/internal/domain"
	"github.com/Clark-Hu/storepeek/internal/endpoint"
	"github.com/Clark-Hu/storepeek/internal/feed"
	"github.com/Clark-Hu/storepeek/internal/locale"
	"github.com/Clark-Hu/storepeek/internal/metrics"
	"github.com/Clark-Hu/storepeek/internal/transport"
)

// DefaultFanOutWorkers bounds the in-flight requests of an all-locales call
// when Options leaves it unset.
const DefaultFanOutWorkers = 16

// Options configures a Client.
type Options struct {
	Scale         feed.Scale
	FanOutWorkers int
	Logger        zerolog.Logger
}

// Client exposes one method per catalog capability. It holds no mutable
// state and is safe for concurrent use.
type Client struct {
	fetcher transport.Fetcher
	uris    *endpoint.Builder
	mapper  *feed.Mapper
	workers int
	logger  zerolog.Logger
}

// New wires a Client around a shared fetcher and URI builder.
func New(fetcher transport.Fetcher, uris *endpoint.Builder, opts Options) *Client {
	if opts.FanOutWorkers <= 0 {
		opts.FanOutWorkers = DefaultFanOutWorkers
	}
	return &Client{
		fetcher: fetcher,
		uris:    uris,
		mapper:  feed.NewMapper(opts.Scale),
		workers: opts.FanOutWorkers,
		logger:  opts.Logger.With().Str("component", "catalog").Logger(),
	}
}

// ReviewsQuery selects one page of reviews. At most one marker may be set.
type ReviewsQuery struct {
	AppID      string
	Store      domain.StoreType
	Culture    locale.Locale
	Sorting    domain.ReviewSorting
	PrevMarker string
	NextMarker string
}

// Search looks up apps by name or keyword.
func (c *Client) Search(ctx context.Context, term string, store domain.StoreType, culture locale.Locale) (domain.StoreSearchResults, error) {
	store, err := checkRequest(store, culture)
	if err != nil {
		return domain.StoreSearchResults{}, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return domain.StoreSearchResults{}, invalidArgument("search term must contain at least one character")
	}

	uri, err := c.uris.SearchURI(term, culture)
	if err != nil {
		return domain.StoreSearchResults{}, err
	}
	doc, err := c.fetcher.FetchText(transport.WithOperation(ctx, "search"), uri)
	if err != nil {
		return domain.StoreSearchResults{}, fmt.Errorf("search %q (%s): %w", term, culture, err)
	}
	apps, err := c.mapper.SearchResults(doc)
	if err != nil {
		return domain.StoreSearchResults{}, fmt.Errorf("search %q (%s): %w", term, culture, err)
	}
	for i := range apps {
		stamp(&apps[i], store, culture)
	}
	return domain.NewStoreSearchResults(store, culture, apps), nil
}

// Spotlight returns the daily spotlight listing.
func (c *Client) Spotlight(ctx context.Context, kind domain.SpotlightType, store domain.StoreType, culture locale.Locale) (domain.StoreSpotlightResults, error) {
	store, doc, err := c.fetchSpotlight(ctx, kind, store, culture)
	if err != nil {
		return domain.StoreSpotlightResults{}, err
	}
	apps, err := c.mapper.SpotlightResults(doc)
	if err != nil {
		return domain.StoreSpotlightResults{}, fmt.Errorf("spotlight %s (%s): %w", kind, culture, err)
	}
	for i := range apps {
		stamp(&apps[i], store, culture)
	}
	return domain.NewStoreSpotlightResults(store, culture, kind, apps), nil
}

// SpotlightIDs returns only the app ids of the daily spotlight listing.
func (c *Client) SpotlightIDs(ctx context.Context, kind domain.SpotlightType, store domain.StoreType, culture locale.Locale) ([]string, error) {
	_, doc, err := c.fetchSpotlight(ctx, kind, store, culture)
	if err != nil {
		return nil, err
	}
	ids, err := c.mapper.SpotlightIDs(doc)
	if err != nil {
		return nil, fmt.Errorf("spotlight ids %s (%s): %w", kind, culture, err)
	}
	return ids, nil
}

func (c *Client) fetchSpotlight(ctx context.Context, kind domain.SpotlightType, store domain.StoreType, culture locale.Locale) (domain.StoreType, string, error) {
	store, err := checkRequest(store, culture)
	if err != nil {
		return "", "", err
	}
	if !kind.Valid() {
		return "", "", invalidArgument("unknown spotlight type %q", kind)
	}
	uri, err := c.uris.SpotlightURI(culture, kind)
	if err != nil {
		return "", "", err
	}
	doc, err := c.fetcher.FetchText(transport.WithOperation(ctx, "spotlight"), uri)
	if err != nil {
		return "", "", fmt.Errorf("spotlight %s (%s): %w", kind, culture, err)
	}
	return store, doc, nil
}

// Metadata returns the full catalog entry of an app.
func (c *Client) Metadata(ctx context.Context, appID string, store domain.StoreType, culture locale.Locale) (domain.AppMetadata, error) {
	store, err := checkApp(appID, store, culture)
	if err != nil {
		return domain.AppMetadata{}, err
	}
	return c.metadata(ctx, appID, store, culture)
}

func (c *Client) metadata(ctx context.Context, appID string, store domain.StoreType, culture locale.Locale) (domain.AppMetadata, error) {
	uri, err := c.uris.MetadataURI(appID, culture)
	if err != nil {
		return domain.AppMetadata{}, err
	}
	doc, err := c.fetcher.FetchText(transport.WithOperation(ctx, "metadata"), uri)
	if err != nil {
		return domain.AppMetadata{}, fmt.Errorf("metadata %s (%s): %w", appID, culture, err)
	}
	meta, err := c.mapper.Metadata(doc)
	if err != nil {
		return domain.AppMetadata{}, fmt.Errorf("metadata %s (%s): %w", appID, culture, err)
	}
	stamp(&meta, store, culture)
	return meta, nil
}

// Rating returns the aggregate rating of an app. Remote and feed failures do
// not fail the call: they yield a placeholder with RatingNotAvailable set.
// Only invalid arguments and cancellation of ctx are returned as errors.
func (c *Client) Rating(ctx context.Context, appID string, store domain.StoreType, culture locale.Locale) (domain.AppRating, error) {
	if _, err := checkApp(appID, store, culture); err != nil {
		return domain.AppRating{}, err
	}
	return c.rating(ctx, appID, culture)
}

func (c *Client) rating(ctx context.Context, appID string, culture locale.Locale) (domain.AppRating, error) {
	r, err := c.lookupRating(ctx, appID, culture)
	if err == nil {
		return r, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.AppRating{}, fmt.Errorf("rating %s (%s): %w", appID, culture, ctxErr)
	}
	c.logger.Warn().Err(err).Str("app_id", appID).Str("locale", culture.String()).Msg("rating not available")
	metrics.IncRatingUnavailable()
	return domain.UnavailableRating(culture), nil
}

func (c *Client) lookupRating(ctx context.Context, appID string, culture locale.Locale) (domain.AppRating, error) {
	uri, err := c.uris.MetadataURI(appID, culture)
	if err != nil {
		return domain.AppRating{}, err
	}
	doc, err := c.fetcher.FetchText(transport.WithOperation(ctx, "rating"), uri)
	if err != nil {
		return domain.AppRating{}, err
	}
	r, err := c.mapper.Rating(doc)
	if err != nil {
		return domain.AppRating{}, err
	}
	r.Culture = culture
	return r, nil
}

// Reviews returns one page of reviews together with the markers of the
// neighbouring pages.
func (c *Client) Reviews(ctx context.Context, q ReviewsQuery) (domain.AppReviews, error) {
	store, err := checkApp(q.AppID, q.Store, q.Culture)
	if err != nil {
		return domain.AppReviews{}, err
	}
	if q.Sorting == "" {
		q.Sorting = domain.SortLatest
	}
	if !q.Sorting.Valid() {
		return domain.AppReviews{}, invalidArgument("unknown review sorting %q", q.Sorting)
	}
	if strings.TrimSpace(q.PrevMarker) != "" && strings.TrimSpace(q.NextMarker) != "" {
		return domain.AppReviews{}, invalidArgument("prev and next page markers are mutually exclusive")
	}

	uri, err := c.uris.ReviewsURI(q.AppID, q.Culture, q.Sorting, q.PrevMarker, q.NextMarker)
	if err != nil {
		return domain.AppReviews{}, err
	}
	doc, err := c.fetcher.FetchText(transport.WithOperation(ctx, "reviews"), uri)
	if err != nil {
		return domain.AppReviews{}, fmt.Errorf("reviews %s (%s): %w", q.AppID, q.Culture, err)
	}
	page, err := c.mapper.Reviews(doc)
	if err != nil {
		return domain.AppReviews{}, fmt.Errorf("reviews %s (%s): %w", q.AppID, q.Culture, err)
	}
	return domain.AppReviews{
		ID:                    q.AppID,
		StoreType:             store,
		StoreCulture:          q.Culture,
		Sorting:               q.Sorting,
		StoreDataModifiedDate: page.ModifiedDate,
		PrevPageMarkerID:      page.PrevPageMarkerID,
		NextPageMarkerID:      page.NextPageMarkerID,
		Reviews:               page.Reviews,
	}, nil
}

// ImageURI returns the address of a store image.
func (c *Client) ImageURI(urn string, imageType domain.ImageType) (string, error) {
	if !imageType.Valid() {
		return "", invalidArgument("unknown image type %q", imageType)
	}
	if strings.TrimSpace(urn) == "" {
		return "", invalidArgument("image urn is required")
	}
	return c.uris.ImageURI(urn, imageType)
}

// ImageStream fetches the bytes of a store image. The caller closes the
// returned reader.
func (c *Client) ImageStream(ctx context.Context, urn string, imageType domain.ImageType) (io.ReadCloser, error) {
	uri, err := c.ImageURI(urn, imageType)
	if err != nil {
		return nil, err
	}
	body, err := c.fetcher.FetchStream(transport.WithOperation(ctx, "image"), uri)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", urn, err)
	}
	return body, nil
}

func checkRequest(store domain.StoreType, culture locale.Locale) (domain.StoreType, error) {
	if culture.IsSentinel() {
		return "", invalidArgument("please provide a valid store culture, got %q", culture)
	}
	return checkStore(store)
}

func checkStore(store domain.StoreType) (domain.StoreType, error) {
	st, err := domain.ParseStoreType(string(store))
	if err != nil {
		return "", invalidArgument("%v", err)
	}
	return st, nil
}

func checkApp(appID string, store domain.StoreType, culture locale.Locale) (domain.StoreType, error) {
	st, err := checkRequest(store, culture)
	if err != nil {
		return "", err
	}
	if err := checkAppID(appID); err != nil {
		return "", err
	}
	return st, nil
}

func checkAppID(appID string) error {
	if strings.TrimSpace(appID) == "" {
		return invalidArgument("app id is required")
	}
	return nil
}

func stamp(app *domain.AppMetadata, store domain.StoreType, culture locale.Locale) {
	app.StoreType = store
	app.StoreCulture = culture
	app.Rating.Culture = culture
}
