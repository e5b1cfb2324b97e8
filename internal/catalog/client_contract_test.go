package catalog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/storepeek/internal/endpoint"
	"github.com/Clark-Hu/storepeek/internal/feed"
	"github.com/Clark-Hu/storepeek/internal/transport"
)

// TestCatalogSmoke checks that a live catalog (or cmd/catalog-mock) returns a
// metadata document the mapper understands.
func TestCatalogSmoke(t *testing.T) {
	baseURL := os.Getenv("CATALOG_SMOKE_URL")
	if baseURL == "" {
		t.Skip("CATALOG_SMOKE_URL not provided")
	}
	appID := os.Getenv("CATALOG_SMOKE_APP_ID")
	if appID == "" {
		appID = testAppID
	}

	uris, err := endpoint.NewBuilder(endpoint.Endpoints{Catalog: baseURL, CatalogCDN: baseURL, Images: baseURL})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	fetcher := transport.NewHTTPFetcher(transport.Options{Timeout: 3 * time.Second, Logger: zerolog.Nop()})
	c := New(fetcher, uris, Options{Scale: feed.TenPoint, Logger: zerolog.Nop()})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	meta, err := c.Metadata(ctx, appID, "", "en-US")
	if err != nil {
		t.Fatalf("fetch metadata: %v", err)
	}
	if meta.Name == "" || meta.Publisher.ID == "" {
		t.Fatalf("unexpected metadata payload: %+v", meta)
	}
}
