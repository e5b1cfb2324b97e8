package feed

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/Clark-Hu/storepeek/internal/domain"
)

// Mapper projects feed documents onto domain records. Every rating it returns
// is expressed on its Scale.
type Mapper struct {
	scale Scale
}

// NewMapper returns a Mapper for scale.
func NewMapper(scale Scale) *Mapper {
	return &Mapper{scale: scale}
}

// Scale reports the rating scale applied by m.
func (m *Mapper) Scale() Scale { return m.scale }

// metadataShape binds the descriptive fields of a metadata document.
type metadataShape struct {
	ID               string `xml:"id"`
	Title            string `xml:"title"`
	SortTitle        string `xml:"sortTitle"`
	Content          string `xml:"content"`
	ShortDescription string `xml:"shortDescription"`
	ReleaseDate      string `xml:"releaseDate"`
	Version          string `xml:"version"`
	Categories       []struct {
		Title string `xml:"title"`
	} `xml:"categories>category"`
	Publisher struct {
		ID   string `xml:"id"`
		Name string `xml:"name"`
	} `xml:"publisher"`
	Image struct {
		ID string `xml:"id"`
	} `xml:"image"`
}

// Metadata maps a full metadata document. Store type and culture are left for
// the caller to fill in.
func (m *Mapper) Metadata(doc string) (domain.AppMetadata, error) {
	root, err := Parse(doc)
	if err != nil {
		return domain.AppMetadata{}, err
	}
	var shape metadataShape
	if err := decodeInto(doc, &shape); err != nil {
		return domain.AppMetadata{}, err
	}

	urn := strings.TrimSpace(shape.ID)
	if urn == "" {
		return domain.AppMetadata{}, notFound("id")
	}
	publisherURN := strings.TrimSpace(shape.Publisher.ID)
	if publisherURN == "" {
		return domain.AppMetadata{}, notFound("publisher")
	}

	all := root.Descendants()
	rating, err := m.rating(all)
	if err != nil {
		return domain.AppMetadata{}, err
	}
	screenshots, err := screenshots(all)
	if err != nil {
		return domain.AppMetadata{}, err
	}

	var categories []string
	for _, c := range shape.Categories {
		if t := strings.TrimSpace(c.Title); t != "" {
			categories = append(categories, t)
		}
	}

	return domain.AppMetadata{
		ID:        domain.LastURNSegment(urn),
		Urn:       urn,
		Name:      strings.TrimSpace(shape.Title),
		Publisher: domain.NewAppPublisher(publisherURN, strings.TrimSpace(shape.Publisher.Name)),
		Rating:    rating,
		Images: domain.AppMetadataImages{
			Logo:        domain.AppImage{Urn: strings.TrimSpace(shape.Image.ID)},
			Screenshots: screenshots,
		},
		SortTitle:        strings.TrimSpace(shape.SortTitle),
		Description:      strings.TrimSpace(shape.Content),
		ShortDescription: strings.TrimSpace(shape.ShortDescription),
		ReleaseDate:      strings.TrimSpace(shape.ReleaseDate),
		Version:          strings.TrimSpace(shape.Version),
		Categories:       categories,
	}, nil
}

// Rating maps only the rating fields of a metadata document.
func (m *Mapper) Rating(doc string) (domain.AppRating, error) {
	root, err := Parse(doc)
	if err != nil {
		return domain.AppRating{}, err
	}
	return m.rating(root.Descendants())
}

func (m *Mapper) rating(fields Elements) (domain.AppRating, error) {
	avg, err := fields.GetFloat("averageUserRating")
	if err != nil {
		return domain.AppRating{}, err
	}
	count, err := fields.GetInt("userRatingCount")
	if err != nil {
		return domain.AppRating{}, err
	}
	if count < 0 {
		return domain.AppRating{}, malformed("userRatingCount", fmt.Errorf("negative count %d", count))
	}
	return domain.AppRating{AverageRating: m.scale.Apply(avg), RatingCount: count}, nil
}

func screenshots(all Elements) ([]domain.AppImage, error) {
	var out []domain.AppImage
	for _, s := range all.Named("screenshot") {
		fields := s.Descendants()
		urn, err := fields.Get("id")
		if err != nil {
			return nil, err
		}
		img := domain.AppImage{Urn: urn}
		if _, ok := fields.Lookup("orientation"); ok {
			if img.Rotation, err = fields.GetInt16("orientation"); err != nil {
				return nil, err
			}
		}
		out = append(out, img)
	}
	return out, nil
}

// SearchResults maps the entry elements of a search document.
func (m *Mapper) SearchResults(doc string) ([]domain.AppMetadata, error) {
	return m.summaries(doc, "entry")
}

// SpotlightResults maps the application elements of a spotlight document.
func (m *Mapper) SpotlightResults(doc string) ([]domain.AppMetadata, error) {
	return m.summaries(doc, "application")
}

// SpotlightIDs extracts only the app ids of a spotlight document.
func (m *Mapper) SpotlightIDs(doc string) ([]string, error) {
	root, err := Parse(doc)
	if err != nil {
		return nil, err
	}
	apps := root.Descendants().Named("application")
	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		urn, err := app.Descendants().Get("id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, domain.LastURNSegment(urn))
	}
	return ids, nil
}

func (m *Mapper) summaries(doc, tag string) ([]domain.AppMetadata, error) {
	root, err := Parse(doc)
	if err != nil {
		return nil, err
	}
	entries := root.Descendants().Named(tag)
	out := make([]domain.AppMetadata, 0, len(entries))
	for _, entry := range entries {
		app, err := m.summary(entry.Descendants())
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, nil
}

func (m *Mapper) summary(fields Elements) (domain.AppMetadata, error) {
	urn, err := fields.Get("id")
	if err != nil {
		return domain.AppMetadata{}, err
	}
	name, err := fields.Get("title")
	if err != nil {
		return domain.AppMetadata{}, err
	}
	rating, err := m.rating(fields)
	if err != nil {
		return domain.AppMetadata{}, err
	}
	logo, err := fields.Get("image")
	if err != nil {
		return domain.AppMetadata{}, err
	}
	return domain.AppMetadata{
		ID:     domain.LastURNSegment(urn),
		Urn:    urn,
		Name:   name,
		Rating: rating,
		Images: domain.AppMetadataImages{Logo: domain.AppImage{Urn: logo}},
	}, nil
}

// ReviewPage is the content of one reviews document.
type ReviewPage struct {
	ModifiedDate     time.Time
	PrevPageMarkerID string
	NextPageMarkerID string
	Reviews          []domain.AppReview
}

// Reviews maps a reviews document including its page markers.
func (m *Mapper) Reviews(doc string) (ReviewPage, error) {
	root, err := Parse(doc)
	if err != nil {
		return ReviewPage{}, err
	}
	all := root.Descendants()

	modified, err := getTime(all, "updated")
	if err != nil {
		return ReviewPage{}, err
	}
	page := ReviewPage{ModifiedDate: modified}
	if page.PrevPageMarkerID, err = marker(all, "prev", "beforeMarker"); err != nil {
		return ReviewPage{}, err
	}
	if page.NextPageMarkerID, err = marker(all, "next", "afterMarker"); err != nil {
		return ReviewPage{}, err
	}

	for _, entry := range all.Named("entry") {
		review, err := m.review(entry.Descendants())
		if err != nil {
			return ReviewPage{}, err
		}
		page.Reviews = append(page.Reviews, review)
	}
	return page, nil
}

func (m *Mapper) review(fields Elements) (domain.AppReview, error) {
	var (
		r   domain.AppReview
		err error
	)
	if r.ID, err = fields.Get("reviewId"); err != nil {
		return r, err
	}
	if r.CreatedDate, err = getTime(fields, "updated"); err != nil {
		return r, err
	}
	author := fields.First("author")
	if author == nil {
		return r, notFound("author")
	}
	if r.Author, err = author.Descendants().Get("name"); err != nil {
		return r, err
	}
	if r.Text, err = fields.Get("content"); err != nil {
		return r, err
	}
	raw, err := fields.GetFloat("userRating")
	if err != nil {
		return r, err
	}
	if raw < 0 || raw > math.MaxUint8 {
		return r, malformed("userRating", fmt.Errorf("value %v out of range", raw))
	}
	r.Rating = m.scale.ApplyByte(uint8(raw))
	if r.Device, err = fields.Get("device"); err != nil {
		return r, err
	}
	if r.AppVersion, err = fields.Get("productVersion"); err != nil {
		return r, err
	}
	return r, nil
}

// marker reads a page marker out of the href of the first link with the given
// rel. Boundary pages carry no such link, which yields "". The raw query is
// split by hand: url.ParseQuery drops pairs holding ';' and turns '+' into a
// space, and markers are opaque.
func marker(all Elements, rel, param string) (string, error) {
	for _, link := range all.Named("link") {
		if link.Attr("rel") != rel {
			continue
		}
		href := link.Attr("href")
		_, rawQuery, _ := strings.Cut(href, "?")
		rawQuery, _, _ = strings.Cut(rawQuery, "#")
		for _, pair := range strings.Split(rawQuery, "&") {
			raw, ok := strings.CutPrefix(pair, param+"=")
			if !ok {
				continue
			}
			value, err := url.PathUnescape(raw)
			if err != nil {
				return "", malformed(param, err)
			}
			return value, nil
		}
		return "", nil
	}
	return "", nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func getTime(fields Elements, name string) (time.Time, error) {
	raw, err := fields.Get(name)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range timeLayouts {
		if t, perr := time.Parse(layout, raw); perr == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, malformed(name, fmt.Errorf("unrecognised time %q", raw))
}
