package feed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

func TestMetadata(t *testing.T) {
	m := NewMapper(TenPoint)
	got, err := m.Metadata(readFixture(t, "metadata.xml"))
	if err != nil {
		t.Fatalf("Metadata() unexpected error: %v", err)
	}

	if got.ID != "2532ff45-aa3f-4aba-a266-ed7ec71d47bd" || got.Urn != "urn:uuid:2532ff45-aa3f-4aba-a266-ed7ec71d47bd" {
		t.Fatalf("identity = %q / %q", got.ID, got.Urn)
	}
	if got.Name != "Contoso Notes" {
		t.Fatalf("Name = %q", got.Name)
	}
	if got.Publisher.ID != "abc123" || got.Publisher.Urn != "urn:publisher:abc123" || got.Publisher.Name != "Contoso Ltd." {
		t.Fatalf("Publisher = %+v", got.Publisher)
	}
	if got.Rating.AverageRating != 7.6 || got.Rating.RatingCount != 1234 {
		t.Fatalf("Rating = %+v", got.Rating)
	}
	if got.Images.Logo.Urn != "urn:uuid:4274cebb-01c7-4788-97f7-635322fa4877" {
		t.Fatalf("Logo = %+v", got.Images.Logo)
	}
	wantShots := []struct {
		urn      string
		rotation int16
	}{
		{"urn:uuid:11111111-1111-1111-1111-111111111111", 0},
		{"urn:uuid:22222222-2222-2222-2222-222222222222", 270},
		{"urn:uuid:33333333-3333-3333-3333-333333333333", 0},
	}
	if len(got.Images.Screenshots) != len(wantShots) {
		t.Fatalf("Screenshots = %d, want %d", len(got.Images.Screenshots), len(wantShots))
	}
	for i, w := range wantShots {
		s := got.Images.Screenshots[i]
		if s.Urn != w.urn || s.Rotation != w.rotation {
			t.Fatalf("Screenshots[%d] = %+v, want %+v", i, s, w)
		}
	}
	if got.Description != "Take notes & sync them everywhere." || got.Version != "2.4.1.0" || got.SortTitle != "Contoso Notes" {
		t.Fatalf("descriptive fields = %q / %q / %q", got.Description, got.Version, got.SortTitle)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "productivity" {
		t.Fatalf("Categories = %v", got.Categories)
	}
}

func TestMetadataRequiresPublisher(t *testing.T) {
	doc := `<feed><id>urn:uuid:1</id><title>x</title><averageUserRating>1</averageUserRating><userRatingCount>1</userRatingCount></feed>`
	_, err := NewMapper(TenPoint).Metadata(doc)
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "publisher" {
		t.Fatalf("Metadata() error = %v, want FieldError{publisher}", err)
	}
}

func TestFivePointScaleAppliesToEveryProjection(t *testing.T) {
	ten := NewMapper(TenPoint)
	five := NewMapper(FivePoint)

	meta10, err := ten.Metadata(readFixture(t, "metadata.xml"))
	if err != nil {
		t.Fatalf("Metadata() ten: %v", err)
	}
	meta5, err := five.Metadata(readFixture(t, "metadata.xml"))
	if err != nil {
		t.Fatalf("Metadata() five: %v", err)
	}
	if meta5.Rating.AverageRating != meta10.Rating.AverageRating*0.5 {
		t.Fatalf("metadata rating = %v, want %v", meta5.Rating.AverageRating, meta10.Rating.AverageRating*0.5)
	}

	rating5, err := five.Rating(readFixture(t, "metadata.xml"))
	if err != nil || rating5.AverageRating != meta10.Rating.AverageRating*0.5 {
		t.Fatalf("Rating() = %+v, %v", rating5, err)
	}

	search5, err := five.SearchResults(readFixture(t, "search.xml"))
	if err != nil || search5[0].Rating.AverageRating != 4 || search5[1].Rating.AverageRating != 2.5 {
		t.Fatalf("SearchResults() = %+v, %v", search5, err)
	}

	spot5, err := five.SpotlightResults(readFixture(t, "spotlight.xml"))
	if err != nil || spot5[0].Rating.AverageRating != 3 || spot5[1].Rating.AverageRating != 4.5 {
		t.Fatalf("SpotlightResults() = %+v, %v", spot5, err)
	}

	page5, err := five.Reviews(readFixture(t, "reviews.xml"))
	if err != nil || page5.Reviews[0].Rating != 5 || page5.Reviews[1].Rating != 2 {
		t.Fatalf("Reviews() = %+v, %v", page5, err)
	}
}

func TestSearchResults(t *testing.T) {
	got, err := NewMapper(TenPoint).SearchResults(readFixture(t, "search.xml"))
	if err != nil {
		t.Fatalf("SearchResults() unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
	first := got[0]
	if first.ID != "2532ff45-aa3f-4aba-a266-ed7ec71d47bd" || first.Name != "Contoso Notes" ||
		first.Rating.AverageRating != 8 || first.Rating.RatingCount != 1234 ||
		first.Images.Logo.Urn != "urn:uuid:4274cebb-01c7-4788-97f7-635322fa4877" {
		t.Fatalf("first result = %+v", first)
	}
	if len(first.Images.Screenshots) != 0 {
		t.Fatalf("search results must not carry screenshots")
	}
}

func TestSearchResultsEmptyFeed(t *testing.T) {
	got, err := NewMapper(TenPoint).SearchResults(`<feed><updated>2015-01-01T00:00:00Z</updated></feed>`)
	if err != nil || len(got) != 0 {
		t.Fatalf("SearchResults() = %v, %v", got, err)
	}
}

func TestSpotlightIDs(t *testing.T) {
	got, err := NewMapper(TenPoint).SpotlightIDs(readFixture(t, "spotlight.xml"))
	if err != nil {
		t.Fatalf("SpotlightIDs() unexpected error: %v", err)
	}
	want := []string{"2532ff45-aa3f-4aba-a266-ed7ec71d47bd", "0d9e8f7a-6b5c-4d3e-2f1a-0b9c8d7e6f5a"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("SpotlightIDs() = %v, want %v", got, want)
	}
}

func TestReviews(t *testing.T) {
	page, err := NewMapper(TenPoint).Reviews(readFixture(t, "reviews.xml"))
	if err != nil {
		t.Fatalf("Reviews() unexpected error: %v", err)
	}
	if page.PrevPageMarkerID != "PREV123" || page.NextPageMarkerID != "XYZ" {
		t.Fatalf("markers = %q / %q", page.PrevPageMarkerID, page.NextPageMarkerID)
	}
	if !page.ModifiedDate.Equal(time.Date(2015, 6, 1, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("ModifiedDate = %v", page.ModifiedDate)
	}
	if len(page.Reviews) != 2 {
		t.Fatalf("reviews = %d, want 2", len(page.Reviews))
	}
	r := page.Reviews[0]
	if r.ID != "r-001" || r.Author != "alice" || r.Text != "Works great, syncs fast." || r.Rating != 10 ||
		r.Device != "RM-1045" || r.AppVersion != "2.4.1.0" ||
		!r.CreatedDate.Equal(time.Date(2015, 5, 31, 21, 15, 0, 0, time.UTC)) {
		t.Fatalf("first review = %+v", r)
	}
}

func TestReviewsBoundaryPageHasNoMarkers(t *testing.T) {
	page, err := NewMapper(TenPoint).Reviews(readFixture(t, "reviews_last_page.xml"))
	if err != nil {
		t.Fatalf("Reviews() unexpected error: %v", err)
	}
	if page.PrevPageMarkerID != "" || page.NextPageMarkerID != "" || len(page.Reviews) != 0 {
		t.Fatalf("boundary page = %+v", page)
	}
}

func TestReviewsMarkersAreOpaque(t *testing.T) {
	const doc = `<feed xmlns:a="http://www.w3.org/2005/Atom">
  <a:link rel="prev" href="/v9/ratings/product/x/reviews?cc=US&amp;beforeMarker=x+y%2Fz" />
  <a:link rel="next" href="/v9/ratings/product/x/reviews?cc=US&amp;afterMarker=ab;cd&amp;orderBy=Latest" />
  <a:updated>2015-06-01T08:30:00Z</a:updated>
</feed>`
	page, err := NewMapper(TenPoint).Reviews(doc)
	if err != nil {
		t.Fatalf("Reviews() unexpected error: %v", err)
	}
	if page.NextPageMarkerID != "ab;cd" {
		t.Fatalf("next marker = %q, want ab;cd", page.NextPageMarkerID)
	}
	if page.PrevPageMarkerID != "x+y/z" {
		t.Fatalf("prev marker = %q, want x+y/z", page.PrevPageMarkerID)
	}
}

func TestReviewsRejectsUnreadableMarker(t *testing.T) {
	const doc = `<feed xmlns:a="http://www.w3.org/2005/Atom">
  <a:link rel="next" href="/reviews?afterMarker=bad%zz" />
  <a:updated>2015-06-01T08:30:00Z</a:updated>
</feed>`
	_, err := NewMapper(TenPoint).Reviews(doc)
	if !errors.Is(err, ErrFieldParse) || !errors.Is(err, ErrFeedParse) {
		t.Fatalf("expected malformed field error, got %v", err)
	}
}

func TestReviewsRejectsMalformedRating(t *testing.T) {
	doc := `<feed><updated>2015-06-01T00:00:00Z</updated><entry><updated>2015-06-01T00:00:00Z</updated>` +
		`<author><name>a</name></author><content>c</content><reviewId>1</reviewId><userRating>ten</userRating>` +
		`<productVersion>1</productVersion><device>d</device></entry></feed>`
	_, err := NewMapper(TenPoint).Reviews(doc)
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "userRating" || !errors.Is(err, ErrFieldParse) {
		t.Fatalf("Reviews() error = %v, want FieldError{userRating}", err)
	}
}

func TestRatingRejectsNegativeCount(t *testing.T) {
	_, err := NewMapper(TenPoint).Rating(`<feed><averageUserRating>5</averageUserRating><userRatingCount>-3</userRatingCount></feed>`)
	if !errors.Is(err, ErrFieldParse) {
		t.Fatalf("Rating() error = %v, want ErrFieldParse", err)
	}
}

func TestScale(t *testing.T) {
	if ScaleFor(true) != FivePoint || ScaleFor(false) != TenPoint {
		t.Fatalf("ScaleFor mapping wrong")
	}
	if FivePoint.Apply(7) != 3.5 || TenPoint.Apply(7) != 7 {
		t.Fatalf("Apply mismatch")
	}
	if FivePoint.ApplyByte(7) != 3 || FivePoint.ApplyByte(10) != 5 || TenPoint.ApplyByte(7) != 7 {
		t.Fatalf("ApplyByte mismatch")
	}
}
