package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveNetworkRequest(t *testing.T) {
	before := testutil.ToFloat64(NetworkRequestTotal.WithLabelValues("transport", "metadata", "error"))
	ObserveNetworkRequest("transport", "metadata", time.Now(), errors.New("boom"))
	after := testutil.ToFloat64(NetworkRequestTotal.WithLabelValues("transport", "metadata", "error"))
	if after-before != 1 {
		t.Fatalf("error counter delta = %v, want 1", after-before)
	}

	before = testutil.ToFloat64(NetworkRequestTotal.WithLabelValues("unknown", "unknown", "success"))
	ObserveNetworkRequest("", "", time.Now(), nil)
	after = testutil.ToFloat64(NetworkRequestTotal.WithLabelValues("unknown", "unknown", "success"))
	if after-before != 1 {
		t.Fatalf("unknown label counter delta = %v, want 1", after-before)
	}
}

func TestObserveLocaleAndUnavailable(t *testing.T) {
	before := testutil.ToFloat64(LocaleOutcomeTotal.WithLabelValues("ratings", "unavailable"))
	ObserveLocale("ratings", "unavailable")
	if got := testutil.ToFloat64(LocaleOutcomeTotal.WithLabelValues("ratings", "unavailable")) - before; got != 1 {
		t.Fatalf("locale outcome delta = %v, want 1", got)
	}

	beforeU := testutil.ToFloat64(RatingUnavailableTotal)
	IncRatingUnavailable()
	if got := testutil.ToFloat64(RatingUnavailableTotal) - beforeU; got != 1 {
		t.Fatalf("unavailable delta = %v, want 1", got)
	}
}

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	IncRatingUnavailable()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "catalog_rating_unavailable_total") {
		t.Fatalf("metrics output missing counter:\n%s", rec.Body.String())
	}
}
