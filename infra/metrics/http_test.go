package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Post("/predict", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/predict", nil),
		httptest.NewRequest(http.MethodPost, "/predict", nil),
		httptest.NewRequest(http.MethodGet, "/healthz", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/predict", "422")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/healthz", "200")))
}

func TestNewHTTPMetrics_Reregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewHTTPMetrics(reg)
	require.NoError(t, err)
	second, err := NewHTTPMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, first.requests, second.requests)
}
