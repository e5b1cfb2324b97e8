package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Clark-Hu/storepeek/internal/catalog"
	"github.com/Clark-Hu/storepeek/internal/domain"
	"github.com/Clark-Hu/storepeek/internal/endpoint"
	"github.com/Clark-Hu/storepeek/internal/feed"
	"github.com/Clark-Hu/storepeek/internal/locale"
	"github.com/Clark-Hu/storepeek/internal/transport"
)

const imageSuffix = ".jpg"

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type reviewsResponse struct {
	domain.AppReviews
	IsEmpty bool `json:"isEmpty"`
}

type spotlightIDsResponse struct {
	SpotlightType domain.SpotlightType `json:"spotlightType"`
	StoreCulture  locale.Locale        `json:"storeCulture"`
	Count         int                  `json:"count"`
	IDs           []string             `json:"ids"`
}

type allLocalesResponse[T any] struct {
	ID      string `json:"id"`
	Count   int    `json:"count"`
	Results []T    `json:"results"`
}

type imageURIResponse struct {
	URI string `json:"uri"`
}

// storeParams are the query parameters every catalog route accepts.
type storeParams struct {
	Store   domain.StoreType
	Culture locale.Locale
}

func (s *Server) parseStoreParams(query url.Values) (storeParams, error) {
	var p storeParams
	store, err := domain.ParseStoreType(strings.TrimSpace(query.Get("store")))
	if err != nil {
		return p, err
	}
	p.Store = store

	p.Culture = s.cfg.DefaultCulture()
	if raw := strings.TrimSpace(query.Get("culture")); raw != "" {
		culture, err := locale.Parse(raw)
		if err != nil {
			return p, err
		}
		p.Culture = culture
	}
	return p, nil
}

func decodeAppID(r *http.Request) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("app id %q is not a valid uuid", raw)
	}
	return id.String(), nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseStoreParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	res, err := s.catalog.Search(r.Context(), r.URL.Query().Get("q"), params.Store, params.Culture)
	if err != nil {
		s.respondCatalogError(w, r, "search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleSpotlight(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseStoreParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	kind := domain.SpotlightType(strings.ToLower(chi.URLParam(r, "type")))

	idsOnly, _ := strconv.ParseBool(r.URL.Query().Get("ids"))
	if idsOnly {
		ids, err := s.catalog.SpotlightIDs(r.Context(), kind, params.Store, params.Culture)
		if err != nil {
			s.respondCatalogError(w, r, "spotlight", err)
			return
		}
		s.respondJSON(w, http.StatusOK, spotlightIDsResponse{
			SpotlightType: kind,
			StoreCulture:  params.Culture,
			Count:         len(ids),
			IDs:           ids,
		})
		return
	}

	res, err := s.catalog.Spotlight(r.Context(), kind, params.Store, params.Culture)
	if err != nil {
		s.respondCatalogError(w, r, "spotlight", err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	appID, params, ok := s.appRequest(w, r)
	if !ok {
		return
	}
	meta, err := s.catalog.Metadata(r.Context(), appID, params.Store, params.Culture)
	if err != nil {
		s.respondCatalogError(w, r, "metadata", err)
		return
	}
	s.respondJSON(w, http.StatusOK, meta)
}

func (s *Server) handleMetadataAll(w http.ResponseWriter, r *http.Request) {
	appID, params, ok := s.appRequest(w, r)
	if !ok {
		return
	}
	all, err := s.catalog.MetadataForAllLocales(r.Context(), appID, params.Store)
	if err != nil {
		s.respondCatalogError(w, r, "metadata for all locales", err)
		return
	}
	s.respondJSON(w, http.StatusOK, allLocalesResponse[domain.AppMetadata]{ID: appID, Count: len(all), Results: all})
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	appID, params, ok := s.appRequest(w, r)
	if !ok {
		return
	}
	rating, err := s.catalog.Rating(r.Context(), appID, params.Store, params.Culture)
	if err != nil {
		s.respondCatalogError(w, r, "rating", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rating)
}

func (s *Server) handleRatingsAll(w http.ResponseWriter, r *http.Request) {
	appID, params, ok := s.appRequest(w, r)
	if !ok {
		return
	}
	all, err := s.catalog.RatingsForAllLocales(r.Context(), appID, params.Store)
	if err != nil {
		s.respondCatalogError(w, r, "ratings for all locales", err)
		return
	}
	s.respondJSON(w, http.StatusOK, allLocalesResponse[domain.AppRating]{ID: appID, Count: len(all), Results: all})
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	appID, params, ok := s.appRequest(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	reviews, err := s.catalog.Reviews(r.Context(), catalog.ReviewsQuery{
		AppID:      appID,
		Store:      params.Store,
		Culture:    params.Culture,
		Sorting:    domain.ReviewSorting(strings.TrimSpace(query.Get("sort"))),
		PrevMarker: strings.TrimSpace(query.Get("prev")),
		NextMarker: strings.TrimSpace(query.Get("next")),
	})
	if err != nil {
		s.respondCatalogError(w, r, "reviews", err)
		return
	}
	s.respondJSON(w, http.StatusOK, reviewsResponse{AppReviews: reviews, IsEmpty: reviews.IsEmpty()})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "id")
	if !strings.HasSuffix(name, imageSuffix) {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	id, err := uuid.Parse(strings.TrimSuffix(name, imageSuffix))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "image id is not a valid uuid")
		return
	}

	body, err := s.catalog.ImageStream(r.Context(), id.String(), domain.ImageType(r.URL.Query().Get("type")))
	if err != nil {
		s.respondCatalogError(w, r, "image", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		s.logger.Warn().Err(err).Str("image_id", id.String()).Msg("image stream interrupted")
	}
}

func (s *Server) handleImageURI(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "image id is not a valid uuid")
		return
	}
	uri, err := s.catalog.ImageURI(id.String(), domain.ImageType(r.URL.Query().Get("type")))
	if err != nil {
		s.respondCatalogError(w, r, "image uri", err)
		return
	}
	s.respondJSON(w, http.StatusOK, imageURIResponse{URI: uri})
}

func (s *Server) appRequest(w http.ResponseWriter, r *http.Request) (string, storeParams, bool) {
	appID, err := decodeAppID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return "", storeParams{}, false
	}
	params, err := s.parseStoreParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return "", storeParams{}, false
	}
	return appID, params, true
}

// statusFor maps catalog errors onto response status and code.
func statusFor(err error) (int, string) {
	var statusErr *transport.StatusError
	switch {
	case errors.Is(err, catalog.ErrInvalidArgument),
		errors.Is(err, locale.ErrInvalidLocale),
		errors.Is(err, endpoint.ErrURIConstruction):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, transport.ErrTransport), errors.Is(err, feed.ErrFeedParse):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func (s *Server) respondCatalogError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("operation", op).Str("path", r.URL.Path).Msg("catalog request failed")
		message = fmt.Sprintf("Failed to fetch %s", op)
	}
	s.respondError(w, status, code, message)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
