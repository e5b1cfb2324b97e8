package catalog

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/storepeek/internal/endpoint"
	"github.com/Clark-Hu/storepeek/internal/feed"
	"github.com/Clark-Hu/storepeek/internal/transport"
)

const testAppID = "2532ff45-aa3f-4aba-a266-ed7ec71d47bd"

const metadataDoc = `<?xml version="1.0" encoding="utf-8"?>
<a:feed xmlns:a="http://www.w3.org/2005/Atom" xmlns="http://schemas.zune.net/catalog/apps/2008/02">
  <a:title type="text">Contoso Notes</a:title>
  <a:id>urn:uuid:2532ff45-aa3f-4aba-a266-ed7ec71d47bd</a:id>
  <a:content type="html">Take notes.</a:content>
  <averageUserRating>8</averageUserRating>
  <userRatingCount>42</userRatingCount>
  <image><id>urn:uuid:4274cebb-01c7-4788-97f7-635322fa4877</id></image>
  <publisher><id>urn:publisher:abc123</id><name>Contoso Ltd.</name></publisher>
</a:feed>`

const searchDoc = `<?xml version="1.0" encoding="utf-8"?>
<a:feed xmlns:a="http://www.w3.org/2005/Atom" xmlns="http://schemas.zune.net/catalog/apps/2008/02">
  <a:entry>
    <a:id>urn:uuid:2532ff45-aa3f-4aba-a266-ed7ec71d47bd</a:id>
    <a:title>Contoso Notes</a:title>
    <averageUserRating>6</averageUserRating>
    <userRatingCount>100</userRatingCount>
    <image><id>urn:uuid:4274cebb-01c7-4788-97f7-635322fa4877</id></image>
  </a:entry>
  <a:entry>
    <a:id>urn:uuid:0d9e8f7a-6b5c-4d3e-2f1a-0b9c8d7e6f5a</a:id>
    <a:title>Tailspin Racer</a:title>
    <averageUserRating>9</averageUserRating>
    <userRatingCount>5321</userRatingCount>
    <image><id>urn:uuid:12345678-90ab-cdef-1234-567890abcdef</id></image>
  </a:entry>
</a:feed>`

const spotlightDoc = `<?xml version="1.0" encoding="utf-8"?>
<a:feed xmlns:a="http://www.w3.org/2005/Atom" xmlns="http://schemas.zune.net/catalog/apps/2008/02">
  <a:entry>
    <applications>
      <application>
        <a:id>urn:uuid:2532ff45-aa3f-4aba-a266-ed7ec71d47bd</a:id>
        <a:title>Contoso Notes</a:title>
        <averageUserRating>4</averageUserRating>
        <userRatingCount>10</userRatingCount>
        <image><id>urn:uuid:4274cebb-01c7-4788-97f7-635322fa4877</id></image>
      </application>
    </applications>
  </a:entry>
</a:feed>`

const reviewsDoc = `<?xml version="1.0" encoding="utf-8"?>
<a:feed xmlns:a="http://www.w3.org/2005/Atom" xmlns="http://schemas.zune.net/catalog/apps/2008/02">
  <a:link rel="next" href="/v9/ratings/product/x/reviews?orderBy=Latest&amp;afterMarker=XYZ" />
  <a:updated>2015-06-01T08:30:00Z</a:updated>
  <a:entry>
    <a:updated>2015-05-31T21:15:00Z</a:updated>
    <a:author><a:name>alice</a:name></a:author>
    <a:content type="text">Works great.</a:content>
    <reviewId>r-001</reviewId>
    <userRating>10</userRating>
    <productVersion>2.4.1.0</productVersion>
    <device>RM-1045</device>
  </a:entry>
</a:feed>`

// fakeFetcher records every requested uri and answers through respond.
type fakeFetcher struct {
	mu      sync.Mutex
	uris    []string
	respond func(ctx context.Context, uri string) (string, error)

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeFetcher) FetchText(ctx context.Context, uri string) (string, error) {
	f.mu.Lock()
	f.uris = append(f.uris, uri)
	f.mu.Unlock()

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	return f.respond(ctx, uri)
}

func (f *fakeFetcher) FetchStream(ctx context.Context, uri string) (io.ReadCloser, error) {
	doc, err := f.FetchText(ctx, uri)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(doc)), nil
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uris...)
}

func fixed(doc string) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) { return doc, nil }
}

func newTestClient(t *testing.T, f transport.Fetcher, fiveStar bool, workers int) *Client {
	t.Helper()
	uris, err := endpoint.NewBuilder(endpoint.Endpoints{
		Catalog:    "http://catalog.test",
		CatalogCDN: "http://cdn.catalog.test",
		Images:     "http://images.test",
	})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	return New(f, uris, Options{
		Scale:         feed.ScaleFor(fiveStar),
		FanOutWorkers: workers,
		Logger:        zerolog.Nop(),
	})
}

func langOf(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Query().Get("lang")
}
