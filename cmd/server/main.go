package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/storepeek/internal/catalog"
	"github.com/Clark-Hu/storepeek/internal/config"
	"github.com/Clark-Hu/storepeek/internal/endpoint"
	"github.com/Clark-Hu/storepeek/internal/feed"
	httpserver "github.com/Clark-Hu/storepeek/internal/http"
	"github.com/Clark-Hu/storepeek/internal/logger"
	"github.com/Clark-Hu/storepeek/internal/metrics"
	"github.com/Clark-Hu/storepeek/internal/transport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		boot := newBootLogger(os.Stderr)
		boot.Fatal().Err(err).Msg("config error")
	}

	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "storepeek",
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.MustRegister(registry)

	uris, err := endpoint.NewBuilder(endpoint.Endpoints{
		Catalog:    cfg.Catalog.BaseURL,
		CatalogCDN: cfg.Catalog.CDNBaseURL,
		Images:     cfg.Catalog.ImageBaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init endpoints")
	}

	fetcher := transport.NewHTTPFetcher(transport.Options{
		Timeout:             cfg.RequestTimeout(),
		UserAgent:           cfg.Catalog.UserAgent,
		MaxIdleConnsPerHost: cfg.Catalog.FanOutWorkers,
		Logger:              log,
	})
	client := catalog.New(fetcher, uris, catalog.Options{
		Scale:         feed.ScaleFor(cfg.Catalog.FiveStarScale),
		FanOutWorkers: cfg.Catalog.FanOutWorkers,
		Logger:        log,
	})

	log.Info().
		Str("catalog", cfg.Catalog.BaseURL).
		Str("scale", feed.ScaleFor(cfg.Catalog.FiveStarScale).String()).
		Int("fanout_workers", cfg.Catalog.FanOutWorkers).
		Msg("catalog client ready")

	server := httpserver.New(cfg, client, registry, log)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
}

// newBootLogger logs failures that happen before the configured logger exists.
func newBootLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("service", "storepeek").Logger()
}
