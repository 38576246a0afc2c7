package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/auth"
	"github.com/finovo/bankcore/internal/infrastructure/metrics"
)

type stubVerifier struct {
	claims *auth.Claims
	err    error
}

func (s stubVerifier) Verify(string) (*auth.Claims, error) { return s.claims, s.err }

func TestAuthMiddleware(t *testing.T) {
	valid := stubVerifier{claims: &auth.Claims{UserID: "user-1", Email: "a@finovo.test", Role: domain.RoleCustomer}}

	tests := []struct {
		name       string
		header     string
		verifier   stubVerifier
		wantStatus int
		wantResult string
	}{
		{"missing header", "", valid, http.StatusUnauthorized, "missing"},
		{"wrong scheme", "Basic abc", valid, http.StatusUnauthorized, "malformed"},
		{"bad token", "Bearer nope", stubVerifier{err: errors.New("expired")}, http.StatusUnauthorized, "invalid"},
		{"valid token", "Bearer good", valid, http.StatusOK, "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			var gotUser *domain.User
			h := AuthMiddleware(tt.verifier, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = domain.UserFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			if got := testutil.ToFloat64(m.AuthAttempts.WithLabelValues(tt.wantResult)); got != 1 {
				t.Fatalf("expected auth attempt %q to be counted, got %v", tt.wantResult, got)
			}
			if tt.wantStatus == http.StatusOK && (gotUser == nil || gotUser.ID != "user-1") {
				t.Fatalf("expected user on context, got %+v", gotUser)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *domain.User
		wantStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"customer", &domain.User{ID: "u", Role: domain.RoleCustomer}, http.StatusForbidden},
		{"manager", &domain.User{ID: "u", Role: domain.RoleManager}, http.StatusOK},
		{"admin", &domain.User{ID: "u", Role: domain.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireRole(domain.RoleAdmin, domain.RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
			if tt.user != nil {
				req = req.WithContext(domain.WithUser(req.Context(), tt.user))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestDevIdentity(t *testing.T) {
	var got *domain.User
	h := DevIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = domain.UserFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without %s, got %d", DevUserHeader, rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DevUserHeader, "user-9")
	req.Header.Set(DevRoleHeader, "superuser")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.ID != "user-9" || got.Role != domain.RoleCustomer {
		t.Fatalf("expected customer user-9, got %+v", got)
	}
}

func TestRateLimiter(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rl := NewRateLimiter(1, 2, m)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/health", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected separate budget per client, got %d", rr.Code)
	}

	if got := testutil.ToFloat64(m.RateLimitHits.WithLabelValues("unmatched")); got != 1 {
		t.Fatalf("expected one rate limit hit, got %v", got)
	}

	now = now.Add(2 * time.Hour)
	if removed := rl.CleanupLimiters(time.Hour); removed != 2 || rl.Size() != 0 {
		t.Fatalf("expected idle limiters to be dropped, removed %d, left %d", removed, rl.Size())
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	h := Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	var meta domain.RequestMeta
	h := NewLoggingMiddleware(log).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta, _ = domain.RequestMetaFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/missing", nil)
	req.Header.Set("User-Agent", "finovo-web/1.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if meta.UserAgent != "finovo-web/1.0" {
		t.Fatalf("expected request meta on context, got %+v", meta)
	}
	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"status":404`, `"path":"/api/v1/accounts/missing"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log line %s", want, out)
		}
	}
}
