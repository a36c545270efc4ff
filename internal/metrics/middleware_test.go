package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/items/{itemID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	routed := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/{itemID}", "200")
	unmatched := HTTPRequestsTotal.WithLabelValues(http.MethodGet, PathUnmatched, "404")
	routedBefore := testutil.ToFloat64(routed)
	unmatchedBefore := testutil.ToFloat64(unmatched)

	for _, path := range []string{"/items/1", "/items/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	for _, path := range []string{"/nope", "/random/abc123"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, routedBefore+2, testutil.ToFloat64(routed))
	assert.Equal(t, unmatchedBefore+2, testutil.ToFloat64(unmatched))
	assert.Zero(t, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/nope", "404")))
}
