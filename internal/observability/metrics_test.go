package observability_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mfi/meridian-admin/internal/observability"
	_ "github.com/meridian-mfi/meridian-admin/testing"
)

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	m := observability.NewMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/clients/{clientID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/clients/1", "/clients/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	body := scrape(t, m)
	assert.Contains(t, body, `meridian_http_requests_total{code="200",route="/clients/{clientID}"} 2`)
	assert.Contains(t, body, `meridian_http_request_duration_seconds_count{route="/clients/{clientID}"} 2`)
}

func TestAuthOutcomeCounter(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveAuth("login", "success")
	m.ObserveAuth("login", "failure")
	m.ObserveAuth("login", "failure")
	m.ObserveAuth("refresh", "success")

	body := scrape(t, m)
	assert.Contains(t, body, `meridian_auth_outcomes_total{operation="login",outcome="success"} 1`)
	assert.Contains(t, body, `meridian_auth_outcomes_total{operation="login",outcome="failure"} 2`)
	assert.Contains(t, body, `meridian_auth_outcomes_total{operation="refresh",outcome="success"} 1`)
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *observability.Metrics
	m.ObserveAuth("login", "success")

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnroutedRequestsAreBucketedAsUnknown(t *testing.T) {
	m := observability.NewMetrics()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	body := scrape(t, m)
	assert.True(t, strings.Contains(body, `route="unknown"`), "missing unknown route bucket:\n%s", body)
}
