package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/finovo/bankcore/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		statusCode int
		wantLabel  string
	}{
		{
			name:       "uses route pattern for account path",
			method:     http.MethodGet,
			path:       "/api/v1/accounts/01HZX3",
			statusCode: http.StatusTeapot,
			wantLabel:  "/api/v1/accounts/{id}",
		},
		{
			name:       "static path",
			method:     http.MethodPost,
			path:       "/health",
			statusCode: http.StatusCreated,
			wantLabel:  "/health",
		},
		{
			name:       "unmatched path",
			method:     http.MethodGet,
			path:       "/nope/123",
			statusCode: http.StatusNotFound,
			wantLabel:  "unmatched",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())

			r := chi.NewRouter()
			r.Use(Metrics(m))
			h := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(tc.statusCode) }
			r.Get("/api/v1/accounts/{id}", h)
			r.Post("/health", h)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))

			if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			counter := m.HTTPRequests.WithLabelValues(tc.method, tc.wantLabel, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}
