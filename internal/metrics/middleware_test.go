package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCountsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/qr/{kind}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues(http.MethodGet, "/qr/{kind}", "404"))

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/qr/anything", nil))
	}

	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues(http.MethodGet, "/qr/{kind}", "404"))
	assert.Equal(t, before+3, after)
	assert.Equal(t, float64(0), testutil.ToFloat64(HTTPRequestInFlight))
}

func TestMetricsLabelsUnmatchedRoutesWithConstant(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	series := testutil.CollectAndCount(HTTPRequestTotals)
	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues(http.MethodGet, UnmatchedRoute, "404"))
	for _, path := range []string{"/random-1", "/random-2", "/a/b/c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues(http.MethodGet, UnmatchedRoute, "404"))
	assert.Equal(t, before+3, after)
	assert.Equal(t, series+1, testutil.CollectAndCount(HTTPRequestTotals))
}
