package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/storepeek/internal/catalog"
	"github.com/Clark-Hu/storepeek/internal/config"
	"github.com/Clark-Hu/storepeek/internal/domain"
	"github.com/Clark-Hu/storepeek/internal/locale"
	"github.com/Clark-Hu/storepeek/internal/metrics"
)

// Catalog is the subset of the catalog client the handlers use.
type Catalog interface {
	Search(ctx context.Context, term string, store domain.StoreType, culture locale.Locale) (domain.StoreSearchResults, error)
	Spotlight(ctx context.Context, kind domain.SpotlightType, store domain.StoreType, culture locale.Locale) (domain.StoreSpotlightResults, error)
	SpotlightIDs(ctx context.Context, kind domain.SpotlightType, store domain.StoreType, culture locale.Locale) ([]string, error)
	Metadata(ctx context.Context, appID string, store domain.StoreType, culture locale.Locale) (domain.AppMetadata, error)
	Rating(ctx context.Context, appID string, store domain.StoreType, culture locale.Locale) (domain.AppRating, error)
	Reviews(ctx context.Context, q catalog.ReviewsQuery) (domain.AppReviews, error)
	ImageURI(urn string, imageType domain.ImageType) (string, error)
	ImageStream(ctx context.Context, urn string, imageType domain.ImageType) (io.ReadCloser, error)
	MetadataForAllLocales(ctx context.Context, appID string, store domain.StoreType, opts ...catalog.FanOutOption) ([]domain.AppMetadata, error)
	RatingsForAllLocales(ctx context.Context, appID string, store domain.StoreType, opts ...catalog.FanOutOption) ([]domain.AppRating, error)
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	catalog  Catalog
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes. A nil
// gatherer serves the default Prometheus registry.
func New(cfg config.Config, c Catalog, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	logger = logger.With().Str("component", "http").Logger()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	s := &Server{
		cfg:      cfg,
		catalog:  c,
		gatherer: gatherer,
		logger:   logger,
		router:   r,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/spotlight/{type}", s.handleSpotlight)
		r.Route("/meta/{id}", func(r chi.Router) {
			r.Get("/", s.handleMetadata)
			r.Get("/all", s.handleMetadataAll)
		})
		r.Get("/rating/{id}", s.handleRating)
		r.Get("/ratings/{id}", s.handleRatingsAll)
		r.Get("/reviews/{id}", s.handleReviews)
		r.Get("/image/{id}", s.handleImage)
		r.Get("/image/{id}/uri", s.handleImageURI)
	})
}

// Start boots the HTTP server and blocks until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: s.cfg.WriteTimeout(),
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				ev := logger.Info()
				if status >= http.StatusInternalServerError {
					ev = logger.Warn()
				}
				ev.Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
