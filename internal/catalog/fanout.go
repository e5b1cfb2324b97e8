package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/storepeek/internal/domain"
	"github.com/Clark-Hu/storepeek/internal/locale"
	"github.com/Clark-Hu/storepeek/internal/metrics"
)

// Progress describes one finished per-locale request of an all-locales call.
type Progress struct {
	Locale    locale.Locale
	Completed int
	Total     int
	Err       error
}

// FanOutOption tunes a single all-locales call.
type FanOutOption func(*fanOutConfig)

type fanOutConfig struct {
	progress func(Progress)
}

// WithProgress registers fn to be called once per finished locale. Calls are
// serialized, so fn needs no locking of its own.
func WithProgress(fn func(Progress)) FanOutOption {
	return func(cfg *fanOutConfig) { cfg.progress = fn }
}

// MetadataForAllLocales fetches the metadata of an app in every concrete
// locale. The first failure cancels the remaining requests and is returned.
func (c *Client) MetadataForAllLocales(ctx context.Context, appID string, store domain.StoreType, opts ...FanOutOption) ([]domain.AppMetadata, error) {
	store, err := checkStore(store)
	if err != nil {
		return nil, err
	}
	if err := checkAppID(appID); err != nil {
		return nil, err
	}
	return fanOut(ctx, c, "metadata", opts, func(ctx context.Context, l locale.Locale) (domain.AppMetadata, string, error) {
		meta, err := c.metadata(ctx, appID, store, l)
		if err != nil {
			return meta, "error", err
		}
		return meta, "ok", nil
	})
}

// RatingsForAllLocales fetches the rating of an app in every concrete locale.
// Per-locale failures become unavailable placeholders, so on success the
// result holds exactly one rating per locale.
func (c *Client) RatingsForAllLocales(ctx context.Context, appID string, store domain.StoreType, opts ...FanOutOption) ([]domain.AppRating, error) {
	if _, err := checkStore(store); err != nil {
		return nil, err
	}
	if err := checkAppID(appID); err != nil {
		return nil, err
	}
	return fanOut(ctx, c, "rating", opts, func(ctx context.Context, l locale.Locale) (domain.AppRating, string, error) {
		r, err := c.rating(ctx, appID, l)
		switch {
		case err != nil:
			return r, "error", err
		case r.RatingNotAvailable:
			return r, "unavailable", nil
		}
		return r, "ok", nil
	})
}

// fanOut runs fn for every concrete locale with at most c.workers requests in
// flight. Results keep the order of locale.Concrete. If ctx is cancelled no
// partial results are returned.
func fanOut[T any](ctx context.Context, c *Client, op string, opts []FanOutOption, fn func(context.Context, locale.Locale) (T, string, error)) ([]T, error) {
	var cfg fanOutConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	locales := locale.Concrete()
	results := make([]T, len(locales))

	var (
		mu        sync.Mutex
		completed int
	)
	report := func(l locale.Locale, err error) {
		if cfg.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		completed++
		cfg.progress(Progress{Locale: l, Completed: completed, Total: len(locales), Err: err})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, l := range locales {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, outcome, err := fn(gctx, l)
			metrics.ObserveLocale(op, outcome)
			report(l, err)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%s for all locales: %w", op, ctxErr)
	}
	metrics.ObserveFanOut(op, start, err)

	log := c.logger.Debug()
	if err != nil {
		log = c.logger.Warn().Err(err)
	}
	log.Str("operation", op).Int("locales", len(locales)).Dur("elapsed", time.Since(start)).Msg("fan-out finished")

	if err != nil {
		return nil, err
	}
	return results, nil
}
